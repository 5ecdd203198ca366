// internal/engine/trigger.go
package engine

import (
    "fmt"
    "time"

    "github.com/julianb233/outreach-backend/internal/model"
)

// EvalContext carries everything an evaluation pass depends on: the timestamp
// it is pinned to and the deny cool-down entries (person id -> expiry). It is
// passed in explicitly so the engine stays a pure function of its inputs.
type EvalContext struct {
    Now       time.Time
    Cooldowns map[int]time.Time
}

// suppressed checks the cool-down list, pruning expired entries as it reads.
func (ctx *EvalContext) suppressed(personID int) bool {
    expiry, ok := ctx.Cooldowns[personID]
    if !ok {
        return false
    }
    if !expiry.After(ctx.Now) {
        delete(ctx.Cooldowns, personID)
        return false
    }
    return true
}

// DaysSinceContact returns whole days between last contact and now, or nil if
// the person was never contacted. Nil never satisfies a threshold comparison;
// only the never-contacted rule branches apply to it.
func DaysSinceContact(p *model.Person, now time.Time) *int {
    if p.LastContacted == nil {
        return nil
    }
    days := int(now.Sub(*p.LastContacted).Hours() / 24)
    return &days
}

// Evaluate runs the rule set over the roster and returns at most one trigger
// per person, in roster scan order. Rules are checked in a fixed precedence
// and short-circuit on the first match.
func Evaluate(ctx *EvalContext, people []model.Person) []model.Trigger {
    triggers := []model.Trigger{}
    for i := range people {
        if t := evaluatePerson(ctx, &people[i]); t != nil {
            triggers = append(triggers, *t)
        }
    }
    return triggers
}

func evaluatePerson(ctx *EvalContext, p *model.Person) *model.Trigger {
    if p.Status != model.StatusActive {
        return nil
    }
    if ctx.suppressed(p.ID) {
        return nil
    }

    days := DaysSinceContact(p, ctx.Now)

    // Rule 1: critical-priority people need the most frequent contact.
    if p.Priority == model.PriorityCritical {
        if days == nil {
            return newTrigger(p, model.TriggerNoContactWarning, model.TriggerUrgent,
                fmt.Sprintf("Never contacted %s (critical priority)", p.Name),
                "Schedule a call or meeting", nil)
        }
        if *days > 7 {
            return newTrigger(p, model.TriggerRelationshipCooling, model.TriggerUrgent,
                fmt.Sprintf("%d days since contact with %s (critical priority)", *days, p.Name),
                "Reach out today - critical relationship needs attention", days)
        }
    }

    // Rule 2: high-priority people.
    if p.Priority == model.PriorityHigh {
        if days == nil {
            return newTrigger(p, model.TriggerNoContactWarning, model.TriggerHigh,
                fmt.Sprintf("Never contacted %s (high priority)", p.Name),
                "Schedule initial touchpoint", nil)
        }
        if *days > 14 {
            return newTrigger(p, model.TriggerRelationshipCooling, model.TriggerHigh,
                fmt.Sprintf("%d days since contact with %s", *days, p.Name),
                "Time for a meaningful touchpoint", days)
        }
    }

    // Rule 3: family and friends need regular contact regardless of tier.
    if (p.RelationshipType == "family" || p.RelationshipType == "friend") && days != nil && *days > 21 {
        return newTrigger(p, model.TriggerCheckInNeeded, model.TriggerHigh,
            fmt.Sprintf("Haven't connected with %s %s in %d days", p.RelationshipType, p.Name, *days),
            "Send a personal message or plan to meet up", days)
    }

    // Rule 4: medium-priority people.
    if p.Priority == model.PriorityMedium {
        if days == nil {
            return newTrigger(p, model.TriggerNoContactWarning, model.TriggerMedium,
                fmt.Sprintf("Never reached out to %s - good time to connect", p.Name),
                "Send initial greeting", nil)
        }
        if *days > 30 {
            return newTrigger(p, model.TriggerCheckInNeeded, model.TriggerMedium,
                fmt.Sprintf("It's been %d days since you contacted %s", *days, p.Name),
                "Send a quick check-in message", days)
        }
    }

    return nil
}

func newTrigger(p *model.Person, triggerType, priority, reason, action string, days *int) *model.Trigger {
    return &model.Trigger{
        PersonID:        p.ID,
        PersonName:      p.Name,
        Circle:          p.Priority,
        Role:            p.RelationshipType,
        TriggerType:     triggerType,
        Priority:        priority,
        Reason:          reason,
        SuggestedAction: action,
        DaysSince:       days,
    }
}
