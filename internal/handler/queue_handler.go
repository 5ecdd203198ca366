// internal/handler/queue_handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	appErrors "github.com/julianb233/outreach-backend/internal/errors"
	"github.com/julianb233/outreach-backend/internal/service"
)

// QueueHandler holds the dependencies for queue-related HTTP handlers
type QueueHandler struct {
	Service *service.OutreachService
}

// NewQueueHandler creates a new QueueHandler backed by the given service
func NewQueueHandler(svc *service.OutreachService) *QueueHandler {
	return &QueueHandler{Service: svc}
}

// ListQueueHandler returns the pending queue with person details
func (h *QueueHandler) ListQueueHandler(w http.ResponseWriter, r *http.Request) {
	listing, err := h.Service.ListQueue()
	if err != nil {
		http.Error(w, "failed to fetch queue: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"queue":         listing.Items,
		"total":         listing.Total,
		"pending_today": listing.PendingToday,
	})
}

// UpdateQueueHandler applies a queue item action: update, cancel, or send_now
func (h *QueueHandler) UpdateQueueHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QueueID       int        `json:"queue_id"`
		Action        string     `json:"action"`
		Message       string     `json:"message"`
		ScheduledTime *time.Time `json:"scheduled_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.QueueID == 0 || body.Action == "" {
		http.Error(w, "queue_id and action are required", http.StatusBadRequest)
		return
	}

	log.Println("📥 Queue action:", body.Action, "for item", body.QueueID)

	switch body.Action {
	case "update":
		if body.Message == "" || body.ScheduledTime == nil {
			http.Error(w, "message and scheduled_time are required for updates", http.StatusBadRequest)
			return
		}
		item, err := h.Service.UpdateQueued(body.QueueID, body.Message, *body.ScheduledTime)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, map[string]interface{}{
			"success": true,
			"message": "Queue item updated successfully",
			"item":    item,
		})

	case "cancel":
		if _, err := h.Service.CancelQueued(body.QueueID); err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, map[string]interface{}{
			"success": true,
			"message": "Queue item cancelled successfully",
		})

	case "send_now":
		item, err := h.Service.SendQueued(body.QueueID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, map[string]interface{}{
			"success": true,
			"message": "Message sent successfully",
			"status":  item.Status,
		})

	default:
		http.Error(w, "invalid action, must be update, cancel, or send_now", http.StatusBadRequest)
	}
}

// StatsHandler returns queue status counts
func (h *QueueHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Service.QueueStats()
	if err != nil {
		http.Error(w, "failed to fetch stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	counts["total"] = total

	h.writeJSON(w, map[string]interface{}{
		"success": true,
		"stats":   counts,
	})
}

func (h *QueueHandler) writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func (h *QueueHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *appErrors.ErrValidation:
		status = http.StatusBadRequest
	case *appErrors.ErrNoContactChannel:
		status = http.StatusConflict
	case *appErrors.ErrDispatchFailure:
		status = http.StatusBadGateway
	default:
		if appErrors.IsNotFound(err) {
			status = http.StatusNotFound
		}
	}
	http.Error(w, err.Error(), status)
}
