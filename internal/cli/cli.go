// Package cli implements the outreachctl subcommands. Each command talks to
// the HTTP API of a running outreach server.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func DefaultServer() string {
	if url := os.Getenv("OUTREACH_SERVER"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

var (
	urgentColor = color.New(color.FgRed, color.Bold)
	highColor   = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
)

func priorityPrinter(priority string) *color.Color {
	switch priority {
	case "urgent":
		return urgentColor
	case "high":
		return highColor
	default:
		return dimColor
	}
}

type candidatesResponse struct {
	Outreaches []struct {
		ID           string `json:"id"`
		PersonID     int    `json:"person_id"`
		PersonName   string `json:"person_name"`
		Role         string `json:"role"`
		TriggerType  string `json:"trigger_type"`
		Priority     string `json:"priority"`
		Reason       string `json:"reason"`
		MessageDraft string `json:"message_draft"`
		CanSend      bool   `json:"can_send"`
	} `json:"outreaches"`
	Summary     map[string]int `json:"summary"`
	GeneratedAt time.Time      `json:"generated_at"`
}

func CandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "Show today's suggested outreach candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp candidatesResponse
			if err := getJSON(cmd, "/outreach/candidates", &resp); err != nil {
				return err
			}

			if len(resp.Outreaches) == 0 {
				okColor.Println("No outreach needed today.")
				return nil
			}

			for _, c := range resp.Outreaches {
				p := priorityPrinter(c.Priority)
				p.Printf("[%s] ", c.Priority)
				fmt.Printf("%s (person %d, %s)\n", c.PersonName, c.PersonID, c.Role)
				fmt.Printf("  %s\n", c.Reason)
				fmt.Printf("  draft: %s\n", c.MessageDraft)
				if !c.CanSend {
					dimColor.Println("  no contact channel - deny or delay only")
				}
			}
			fmt.Printf("\n%d candidates (%d urgent, %d high)\n",
				resp.Summary["total"], resp.Summary["urgent"], resp.Summary["high"])
			return nil
		},
	}
}

func ApproveCmd() *cobra.Command {
	var personID int
	var message string
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve a candidate and queue it for the optimal send time",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			err := postJSON(cmd, "/outreach/approve", map[string]any{
				"person_id": personID,
				"message":   message,
			}, &resp)
			if err != nil {
				return err
			}
			okColor.Printf("Queued (queue_id %v) for %v\n", resp["queue_id"], resp["scheduled_time"])
			return nil
		},
	}
	cmd.Flags().IntVar(&personID, "person", 0, "Person ID")
	cmd.Flags().StringVar(&message, "message", "", "Message text")
	cmd.MarkFlagRequired("person")
	cmd.MarkFlagRequired("message")
	return cmd
}

func DenyCmd() *cobra.Command {
	var personID int
	var message, reason string
	cmd := &cobra.Command{
		Use:   "deny",
		Short: "Deny a candidate (suppresses re-suggestion for the cool-down window)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			err := postJSON(cmd, "/outreach/deny", map[string]any{
				"person_id": personID,
				"message":   message,
				"reason":    reason,
			}, &resp)
			if err != nil {
				return err
			}
			okColor.Println("Denied and logged.")
			return nil
		},
	}
	cmd.Flags().IntVar(&personID, "person", 0, "Person ID")
	cmd.Flags().StringVar(&message, "message", "", "The drafted message being denied")
	cmd.Flags().StringVar(&reason, "reason", "", "Why the suggestion was denied")
	cmd.MarkFlagRequired("person")
	cmd.MarkFlagRequired("message")
	return cmd
}

func DelayCmd() *cobra.Command {
	var personID int
	var message, delayReason string
	cmd := &cobra.Command{
		Use:   "delay",
		Short: "Delay a candidate (1h, 4h, or tomorrow morning)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			err := postJSON(cmd, "/outreach/delay", map[string]any{
				"person_id":    personID,
				"message":      message,
				"delay_reason": delayReason,
			}, &resp)
			if err != nil {
				return err
			}
			okColor.Printf("Delayed until %v\n", resp["scheduled_time"])
			return nil
		},
	}
	cmd.Flags().IntVar(&personID, "person", 0, "Person ID")
	cmd.Flags().StringVar(&message, "message", "", "Message text")
	cmd.Flags().StringVar(&delayReason, "for", "1h", "Delay offset: 1h, 4h, tomorrow")
	cmd.MarkFlagRequired("person")
	cmd.MarkFlagRequired("message")
	return cmd
}

func SendCmd() *cobra.Command {
	var personID, queueID int
	var message string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send immediately: a drafted message (--person --message) or a queued item (--queue)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			var err error
			if queueID > 0 {
				err = putJSON(cmd, "/outreach/queue", map[string]any{
					"queue_id": queueID,
					"action":   "send_now",
				}, &resp)
			} else {
				err = postJSON(cmd, "/outreach/send", map[string]any{
					"person_id": personID,
					"message":   message,
				}, &resp)
			}
			if err != nil {
				return err
			}
			okColor.Println(resp["message"])
			return nil
		},
	}
	cmd.Flags().IntVar(&personID, "person", 0, "Person ID (immediate draft send)")
	cmd.Flags().StringVar(&message, "message", "", "Message text (immediate draft send)")
	cmd.Flags().IntVar(&queueID, "queue", 0, "Queue item ID (send-now on a queued item)")
	return cmd
}

type queueResponse struct {
	Queue []struct {
		ID            int       `json:"id"`
		PersonID      int       `json:"person_id"`
		PersonName    string    `json:"person_name"`
		Message       string    `json:"message"`
		ScheduledTime time.Time `json:"scheduled_time"`
		DelayReason   string    `json:"delay_reason"`
	} `json:"queue"`
	Total        int `json:"total"`
	PendingToday int `json:"pending_today"`
}

func QueueCmd() *cobra.Command {
	var cancelID int
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List the pending send queue, or cancel an item with --cancel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cancelID > 0 {
				var resp map[string]any
				if err := putJSON(cmd, "/outreach/queue", map[string]any{
					"queue_id": cancelID,
					"action":   "cancel",
				}, &resp); err != nil {
					return err
				}
				okColor.Println("Cancelled.")
				return nil
			}

			var resp queueResponse
			if err := getJSON(cmd, "/outreach/queue", &resp); err != nil {
				return err
			}
			if resp.Total == 0 {
				okColor.Println("Queue is empty.")
				return nil
			}
			for _, item := range resp.Queue {
				fmt.Printf("#%d %s -> %s", item.ID, item.ScheduledTime.Format("Jan 2 15:04"), item.PersonName)
				if item.DelayReason != "" {
					dimColor.Printf(" (delayed: %s)", item.DelayReason)
				}
				fmt.Printf("\n  %s\n", item.Message)
			}
			fmt.Printf("\n%d pending, %d due today\n", resp.Total, resp.PendingToday)
			return nil
		},
	}
	cmd.Flags().IntVar(&cancelID, "cancel", 0, "Cancel the given queue item")
	return cmd
}

func StatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue status counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Stats map[string]int `json:"stats"`
			}
			if err := getJSON(cmd, "/outreach/stats", &resp); err != nil {
				return err
			}
			fmt.Printf("pending: %d  sent: %d  cancelled: %d  total: %d\n",
				resp.Stats["pending"], resp.Stats["sent"], resp.Stats["cancelled"], resp.Stats["total"])
			return nil
		},
	}
}

// ====================== HTTP plumbing ======================

func serverURL(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("server")
	if url == "" {
		url = DefaultServer()
	}
	return url
}

func getJSON(cmd *cobra.Command, path string, out any) error {
	resp, err := http.Get(serverURL(cmd) + path)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func postJSON(cmd *cobra.Command, path string, body, out any) error {
	payload, _ := json.Marshal(body)
	resp, err := http.Post(serverURL(cmd)+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func putJSON(cmd *cobra.Command, path string, body, out any) error {
	payload, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPut, serverURL(cmd)+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	return json.Unmarshal(data, out)
}
