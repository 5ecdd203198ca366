// internal/service/outreach_service.go
package service

import (
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/julianb233/outreach-backend/internal/dispatch"
    "github.com/julianb233/outreach-backend/internal/engine"
    appErrors "github.com/julianb233/outreach-backend/internal/errors"
    "github.com/julianb233/outreach-backend/internal/model"
    "github.com/julianb233/outreach-backend/internal/repository"
)

type OutreachService struct {
    PersonRepo   repository.PersonRepositoryInterface
    QueueRepo    repository.QueueRepositoryInterface
    HistoryRepo  repository.HistoryRepositoryInterface
    Gateway      dispatch.Gateway
    Policy       SendTimePolicy
    DailyLimit   int
    RosterLimit  int
    CooldownDays int
    MorningHour  int
    Clock        func() time.Time
}

func (s *OutreachService) now() time.Time {
    if s.Clock != nil {
        return s.Clock()
    }
    return time.Now()
}

func (s *OutreachService) dailyLimit() int {
    if s.DailyLimit > 0 {
        return s.DailyLimit
    }
    return 5
}

func (s *OutreachService) rosterLimit() int {
    if s.RosterLimit > 0 {
        return s.RosterLimit
    }
    return 20
}

func (s *OutreachService) cooldown() time.Duration {
    days := s.CooldownDays
    if days <= 0 {
        days = 7
    }
    return time.Duration(days) * 24 * time.Hour
}

func (s *OutreachService) morningHour() int {
    if s.MorningHour > 0 && s.MorningHour <= 23 {
        return s.MorningHour
    }
    return 9
}

// CandidatesResult is the daily suggestion set shown to the user.
type CandidatesResult struct {
    Outreaches  []model.OutreachCandidate `json:"outreaches"`
    Summary     map[string]int            `json:"summary"`
    GeneratedAt time.Time                 `json:"generated_at"`
}

// BuildCandidates runs one evaluation pass: roster -> triggers -> ranking ->
// drafts. People under a deny cool-down or with a message already queued are
// skipped; candidates are de-duplicated by person within the pass.
func (s *OutreachService) BuildCandidates() (*CandidatesResult, error) {
    now := s.now()

    people, err := s.PersonRepo.ListActive(s.rosterLimit())
    if err != nil {
        return nil, err
    }

    cooldowns, err := s.PersonRepo.ListActiveDenials(now)
    if err != nil {
        return nil, err
    }

    ctx := &engine.EvalContext{Now: now, Cooldowns: cooldowns}
    triggers := engine.Evaluate(ctx, people)

    // Drop people who already have something queued so overlapping passes
    // cannot double-suggest them.
    eligible := triggers[:0]
    for _, t := range triggers {
        queued, err := s.QueueRepo.HasPendingForPerson(t.PersonID)
        if err != nil {
            return nil, err
        }
        if !queued {
            eligible = append(eligible, t)
        }
    }

    top := engine.Rank(eligible, s.dailyLimit())

    byID := map[int]*model.Person{}
    for i := range people {
        byID[people[i].ID] = &people[i]
    }

    seen := map[int]bool{}
    outreaches := []model.OutreachCandidate{}
    for i := range top {
        t := &top[i]
        if seen[t.PersonID] {
            continue
        }
        seen[t.PersonID] = true

        person := byID[t.PersonID]
        if person == nil {
            person, err = s.PersonRepo.GetByID(t.PersonID)
            if err != nil {
                log.Println("⚠️ skipping candidate, person lookup failed:", err)
                continue
            }
        }

        outreaches = append(outreaches, model.OutreachCandidate{
            ID:           fmt.Sprintf("outreach-%d", t.PersonID),
            PersonID:     t.PersonID,
            PersonName:   t.PersonName,
            Circle:       t.Circle,
            Role:         t.Role,
            TriggerType:  t.TriggerType,
            Priority:     t.Priority,
            Reason:       t.Reason,
            MessageDraft: engine.Draft(t, person),
            ContactInfo:  model.ContactInfo{Phone: person.Phone, Email: person.Email},
            LastContact:  model.LastContact{DaysAgo: t.DaysSince},
            CanSend:      person.HasContactChannel(),
        })
    }

    summary := map[string]int{
        "total":  len(outreaches),
        "urgent": 0,
        "high":   0,
    }
    for _, c := range outreaches {
        if c.Priority == model.TriggerUrgent {
            summary["urgent"]++
        }
        if c.Priority == model.TriggerHigh {
            summary["high"]++
        }
    }

    return &CandidatesResult{Outreaches: outreaches, Summary: summary, GeneratedAt: now}, nil
}

// ====================== Workflow transitions ======================

// Approve queues the drafted message at the policy's optimal send time, or at
// an explicit custom time. The person must have a reachable channel.
func (s *OutreachService) Approve(personID int, message, originalTrigger string, customSendTime *time.Time) (*model.QueueItem, error) {
    if err := validateTransition(personID, message); err != nil {
        return nil, err
    }

    person, err := s.PersonRepo.GetByID(personID)
    if err != nil {
        return nil, err
    }
    if !person.HasContactChannel() {
        return nil, appErrors.NewNoContactChannel(personID)
    }

    now := s.now()
    var scheduled time.Time
    if customSendTime != nil {
        scheduled = *customSendTime
    } else {
        scheduled = s.Policy.OptimalSendTime(person, now)
    }
    scheduled = clampForward(scheduled, now)

    item := &model.QueueItem{
        PersonID:        personID,
        Message:         message,
        ScheduledTime:   scheduled,
        Status:          model.QueuePending,
        OriginalTrigger: originalTrigger,
    }
    if err := s.QueueRepo.Create(item); err != nil {
        return nil, err
    }

    s.audit(personID, "approve", message, &scheduled, "")
    return item, nil
}

// Deny records the decision and suppresses the person from trigger evaluation
// for the cool-down window. No queue entry is created.
func (s *OutreachService) Deny(personID int, message, reason string) error {
    if err := validateTransition(personID, message); err != nil {
        return err
    }
    if reason == "" {
        reason = "User declined to send"
    }

    if _, err := s.PersonRepo.GetByID(personID); err != nil {
        return err
    }

    expiresAt := s.now().Add(s.cooldown())
    if err := s.PersonRepo.UpsertDenial(personID, expiresAt, reason); err != nil {
        return err
    }

    s.audit(personID, "deny", fmt.Sprintf("DENIED: %s (Reason: %s)", message, reason), nil, "")
    return nil
}

// Delay queues the message at a user-chosen offset: 1h, 4h, tomorrow at the
// configured morning hour, or an explicit custom time.
func (s *OutreachService) Delay(personID int, message, delayReason string, customTime *time.Time) (*model.QueueItem, error) {
    if err := validateTransition(personID, message); err != nil {
        return nil, err
    }

    if _, err := s.PersonRepo.GetByID(personID); err != nil {
        return nil, err
    }

    now := s.now()
    var scheduled time.Time
    switch delayReason {
    case "1h":
        scheduled = now.Add(time.Hour)
    case "4h":
        scheduled = now.Add(4 * time.Hour)
    case "tomorrow":
        next := now.AddDate(0, 0, 1)
        scheduled = time.Date(next.Year(), next.Month(), next.Day(), s.morningHour(), 0, 0, 0, next.Location())
    case "custom":
        if customTime == nil {
            return nil, appErrors.NewValidation("custom_time", "required when delay_reason is custom")
        }
        if customTime.Before(now) {
            return nil, appErrors.NewValidation("custom_time", "must not be in the past")
        }
        scheduled = *customTime
    default:
        return nil, appErrors.NewValidation("delay_reason", "must be 1h, 4h, tomorrow, or custom")
    }

    item := &model.QueueItem{
        PersonID:      personID,
        Message:       message,
        ScheduledTime: scheduled,
        DelayReason:   delayReason,
        Status:        model.QueuePending,
    }
    if err := s.QueueRepo.Create(item); err != nil {
        return nil, err
    }

    s.audit(personID, "delay", message, &scheduled, delayReason)
    return item, nil
}

// SendDraft dispatches a drafted message immediately, outside the queue. Only
// on confirmed delivery are last_contacted and contact history updated, in
// one transaction.
func (s *OutreachService) SendDraft(personID int, message string) error {
    if err := validateTransition(personID, message); err != nil {
        return err
    }

    person, err := s.PersonRepo.GetByID(personID)
    if err != nil {
        return err
    }
    if !person.HasContactChannel() {
        return appErrors.NewNoContactChannel(personID)
    }

    if err := s.Gateway.Send(person.Phone, message); err != nil {
        return appErrors.NewDispatchFailure(person.Phone, err)
    }

    now := s.now()
    if err := s.HistoryRepo.RecordDelivery(personID, "Daily Outreach", message, now); err != nil {
        return err
    }

    s.audit(personID, "send", message, nil, "")
    return nil
}

// SendQueued dispatches a queue item, either because it came due or because
// the user forced send-now. The pending row is claimed first so concurrent
// sends on the same item cannot both reach the gateway: the loser gets the
// winner's row back and no-ops.
func (s *OutreachService) SendQueued(itemID int) (*model.QueueItem, error) {
    item, claimed, err := s.QueueRepo.ClaimForSend(itemID)
    if err != nil {
        return nil, err
    }
    if !claimed {
        // Already sent, cancelled, or in flight elsewhere. Not an error.
        return item, nil
    }

    person, err := s.PersonRepo.GetByID(item.PersonID)
    if err != nil {
        if appErrors.IsNotFound(err) {
            // The person is gone; the item is void. Cancel only takes a
            // pending row, so the claim goes back first.
            if relErr := s.QueueRepo.ReleaseClaim(itemID); relErr != nil {
                log.Println("⚠️ failed to release claim:", relErr)
            }
            if _, cancelErr := s.QueueRepo.Cancel(itemID); cancelErr != nil {
                log.Println("⚠️ failed to cancel void queue item:", cancelErr)
            }
        }
        return nil, err
    }
    if !person.HasContactChannel() {
        if relErr := s.QueueRepo.ReleaseClaim(itemID); relErr != nil {
            log.Println("⚠️ failed to release claim:", relErr)
        }
        return nil, appErrors.NewNoContactChannel(person.ID)
    }

    if err := s.Gateway.Send(person.Phone, item.Message); err != nil {
        if relErr := s.QueueRepo.ReleaseClaim(itemID); relErr != nil {
            log.Println("⚠️ failed to release claim:", relErr)
        }
        if retryErr := s.QueueRepo.IncrementRetry(itemID); retryErr != nil {
            log.Println("⚠️ failed to bump retry count:", retryErr)
        }
        return nil, appErrors.NewDispatchFailure(person.Phone, err)
    }

    now := s.now()
    if err := s.QueueRepo.MarkSent(itemID, item.PersonID, item.Message, now); err != nil {
        return nil, err
    }

    s.audit(item.PersonID, "send", item.Message, nil, "")

    item.Status = model.QueueSent
    item.SentAt = &now
    return item, nil
}

// CancelQueued marks a pending item cancelled. No contact-store mutation.
func (s *OutreachService) CancelQueued(itemID int) (*model.QueueItem, error) {
    item, err := s.QueueRepo.Cancel(itemID)
    if err != nil {
        return nil, err
    }
    s.audit(item.PersonID, "cancel", fmt.Sprintf("Cancelled queued message: %s", item.Message), nil, "")
    return item, nil
}

// UpdateQueued edits a pending item's message and schedule.
func (s *OutreachService) UpdateQueued(itemID int, message string, scheduledTime time.Time) (*model.QueueItem, error) {
    if strings.TrimSpace(message) == "" {
        return nil, appErrors.NewValidation("message", "must not be empty")
    }
    if scheduledTime.Before(s.now()) {
        return nil, appErrors.NewValidation("scheduled_time", "must not be in the past")
    }
    return s.QueueRepo.UpdatePending(itemID, message, scheduledTime)
}

// QueueListing is a pending queue view joined with person details.
type QueueListing struct {
    Items        []QueueEntry `json:"queue"`
    Total        int          `json:"total"`
    PendingToday int          `json:"pending_today"`
}

type QueueEntry struct {
    model.QueueItem
    PersonName  string            `json:"person_name"`
    ContactInfo model.ContactInfo `json:"contact_info"`
}

func (s *OutreachService) ListQueue() (*QueueListing, error) {
    items, err := s.QueueRepo.ListPending()
    if err != nil {
        return nil, err
    }

    now := s.now()
    listing := &QueueListing{Items: []QueueEntry{}, Total: len(items)}
    for _, item := range items {
        entry := QueueEntry{QueueItem: item}
        if person, err := s.PersonRepo.GetByID(item.PersonID); err == nil {
            entry.PersonName = person.Name
            entry.ContactInfo = model.ContactInfo{Phone: person.Phone, Email: person.Email}
        }
        listing.Items = append(listing.Items, entry)

        y1, m1, d1 := item.ScheduledTime.Date()
        y2, m2, d2 := now.Date()
        if y1 == y2 && m1 == m2 && d1 == d2 {
            listing.PendingToday++
        }
    }
    return listing, nil
}

func (s *OutreachService) QueueStats() (map[string]int, error) {
    return s.QueueRepo.StatusCounts()
}

// ProcessDue sends every pending item whose schedule has passed. Dispatch
// failures leave the item pending for the next pass; items whose person has
// no channel are cancelled. Returns the number successfully sent.
func (s *OutreachService) ProcessDue(batchSize int) (int, error) {
    if batchSize <= 0 {
        batchSize = 10
    }
    due, err := s.QueueRepo.ListDue(s.now(), batchSize)
    if err != nil {
        return 0, err
    }

    sent := 0
    for _, item := range due {
        if _, err := s.SendQueued(item.ID); err != nil {
            switch err.(type) {
            case *appErrors.ErrNoContactChannel:
                log.Printf("⚠️ no contact channel for person %d, cancelling item %d", item.PersonID, item.ID)
                if _, cancelErr := s.CancelQueued(item.ID); cancelErr != nil {
                    log.Println("⚠️ failed to cancel item:", cancelErr)
                }
            case *appErrors.ErrDispatchFailure:
                log.Printf("⚠️ dispatch failed for item %d, left pending: %v", item.ID, err)
            default:
                log.Printf("⚠️ failed to process item %d: %v", item.ID, err)
            }
            continue
        }
        sent++
    }
    return sent, nil
}

// ListDueIDs returns the ids of pending items whose schedule has passed,
// oldest first, for schedulers that hand dispatch off to a queue.
func (s *OutreachService) ListDueIDs(batchSize int) ([]int, error) {
    if batchSize <= 0 {
        batchSize = 10
    }
    due, err := s.QueueRepo.ListDue(s.now(), batchSize)
    if err != nil {
        return nil, err
    }
    ids := make([]int, 0, len(due))
    for _, item := range due {
        ids = append(ids, item.ID)
    }
    return ids, nil
}

func (s *OutreachService) audit(personID int, action, message string, scheduledTime *time.Time, delayReason string) {
    err := s.HistoryRepo.AppendAction(&model.OutreachAction{
        PersonID:      personID,
        Action:        action,
        Message:       message,
        ScheduledTime: scheduledTime,
        DelayReason:   delayReason,
    })
    if err != nil {
        log.Println("⚠️ failed to write outreach audit entry:", err)
    }
}

func validateTransition(personID int, message string) error {
    if personID <= 0 {
        return appErrors.NewValidation("person_id", "required")
    }
    if strings.TrimSpace(message) == "" {
        return appErrors.NewValidation("message", "must not be empty")
    }
    return nil
}
