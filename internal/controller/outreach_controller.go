// internal/controller/outreach_controller.go
package controller

import (
    "encoding/json"
    "net/http"
    "time"

    appErrors "github.com/julianb233/outreach-backend/internal/errors"
    "github.com/julianb233/outreach-backend/internal/service"
)

type OutreachController struct {
    OutreachService *service.OutreachService
}

// Candidates returns today's top suggestions with drafted messages.
func (c *OutreachController) Candidates(w http.ResponseWriter, r *http.Request) {
    result, err := c.OutreachService.BuildCandidates()
    if err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, result)
}

// Send dispatches a drafted message immediately, bypassing the queue.
func (c *OutreachController) Send(w http.ResponseWriter, r *http.Request) {
    var body struct {
        PersonID int    `json:"person_id"`
        Message  string `json:"message"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    if err := c.OutreachService.SendDraft(body.PersonID, body.Message); err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, map[string]interface{}{
        "success": true,
        "message": "Message sent successfully",
    })
}

// Approve queues the message at the optimal send time.
func (c *OutreachController) Approve(w http.ResponseWriter, r *http.Request) {
    var body struct {
        PersonID        int             `json:"person_id"`
        Message         string          `json:"message"`
        OriginalTrigger json.RawMessage `json:"original_trigger"`
        CustomSendTime  *time.Time      `json:"custom_send_time"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    item, err := c.OutreachService.Approve(body.PersonID, body.Message, string(body.OriginalTrigger), body.CustomSendTime)
    if err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, map[string]interface{}{
        "success":        true,
        "message":        "Message approved and queued for optimal send time",
        "queue_id":       item.ID,
        "scheduled_time": item.ScheduledTime,
    })
}

// Deny records the decision and suppresses the person for the cool-down.
func (c *OutreachController) Deny(w http.ResponseWriter, r *http.Request) {
    var body struct {
        PersonID int    `json:"person_id"`
        Message  string `json:"message"`
        Reason   string `json:"reason"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    if err := c.OutreachService.Deny(body.PersonID, body.Message, body.Reason); err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, map[string]interface{}{
        "success": true,
        "message": "Outreach denied and logged",
    })
}

// Delay queues the message at a user-chosen offset.
func (c *OutreachController) Delay(w http.ResponseWriter, r *http.Request) {
    var body struct {
        PersonID    int        `json:"person_id"`
        Message     string     `json:"message"`
        DelayReason string     `json:"delay_reason"`
        CustomTime  *time.Time `json:"custom_time"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }

    item, err := c.OutreachService.Delay(body.PersonID, body.Message, body.DelayReason, body.CustomTime)
    if err != nil {
        writeError(w, err)
        return
    }

    writeJSON(w, map[string]interface{}{
        "success":        true,
        "message":        "Message delayed for " + body.DelayReason,
        "queue_id":       item.ID,
        "scheduled_time": item.ScheduledTime,
        "delay_reason":   body.DelayReason,
    })
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
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
