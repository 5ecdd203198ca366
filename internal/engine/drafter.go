// internal/engine/drafter.go
package engine

import (
    "strings"

    "github.com/julianb233/outreach-backend/internal/model"
)

const defaultBranch = "default"

// templates maps trigger_type -> role -> message template. Every trigger type
// carries a "default" branch, so Draft always produces a string for a
// well-formed trigger. no_contact_warning branches on urgency rather than
// role: the urgent variant is the inner-circle one.
var templates = map[string]map[string]string{
    model.TriggerRelationshipCooling: {
        "family":      "Hi {firstName}! I've been thinking about you and the family. It's been way too long since we caught up. How's everyone doing?",
        "friend":      "{firstName}! I realized it's been way too long since we connected. Miss our conversations - can we catch up soon?",
        "client":      "Hi {firstName}! I wanted to check in and see how things are going with your projects. Any updates or new challenges I can help with?",
        "partner":     "Hi {firstName}! Been thinking about our partnership and wanted to share some updates. How have things been on your end?",
        "mentor":      "Hi {firstName}! I've been thinking about our conversations and wanted to check in. How have things been going for you? Any updates to share?",
        defaultBranch: "Hi {firstName}! Been thinking about you and wanted to reconnect. How have you been? Would love to hear what's new.",
    },
    model.TriggerCheckInNeeded: {
        "family":      "Hey {firstName}! Just wanted to check in and see how you and everyone are doing. Miss seeing you!",
        "friend":      "Hey {firstName}! Just wanted to check in and see how you're doing. What's been keeping you busy lately?",
        "client":      "Hi {firstName}! Checking in to see how your projects are going. Is there anything I can help you with or any updates you'd like to share?",
        "prospect":    "Hi {firstName}! I wanted to follow up and see if there's anything new I can help you with. How has business been?",
        "partner":     "Hi {firstName}! Just checking in on our partnership. Any new opportunities or updates to share?",
        "mentor":      "Hi {firstName}! Just wanted to check in and see how you're doing. Would love to hear what you've been working on lately.",
        defaultBranch: "Hey {firstName}! Just wanted to check in and see how you're doing. What's been keeping you busy lately?",
    },
    model.TriggerNoContactWarning: {
        "urgent":      "{firstName}! I can't believe we haven't connected yet. I'd really love to get to know you better - are you free for coffee sometime this week?",
        defaultBranch: "Hi {firstName}! I don't think we've had a chance to properly connect yet. Would love to schedule some time to chat - are you available for a quick call?",
    },
}

// genericTemplates handles trigger types with no dedicated table, keyed by
// relationship role.
var genericTemplates = map[string]string{
    "family":      "Hi {firstName}! Hope you're doing well. Just wanted to reach out and see how you and the family are doing. Love you!",
    "friend":      "Hey {firstName}! Hope you're having a great day. Just wanted to reach out and see how things are going. What's new with you?",
    "client":      "Hi {firstName}! Hope your projects are going well. Just wanted to check in and see if there's anything I can help you with.",
    "mentor":      "Hi {firstName}! Hope you're doing well. Just wanted to reach out and see how you've been. What's new in your world?",
    defaultBranch: "Hi {firstName}! Hope you're having a great day. Just wanted to reach out and see how things are going. What's new with you?",
}

// Draft selects a template for the trigger and fills in the person's first
// name. Pure: no I/O, no side effects, same inputs always give the same
// string.
func Draft(t *model.Trigger, p *model.Person) string {
    firstName := FirstName(displayName(t, p))

    template := selectTemplate(t, p)
    return strings.ReplaceAll(template, "{firstName}", firstName)
}

func selectTemplate(t *model.Trigger, p *model.Person) string {
    branches, ok := templates[t.TriggerType]
    if !ok {
        role := roleOf(t, p)
        if tmpl, ok := genericTemplates[role]; ok {
            return tmpl
        }
        return genericTemplates[defaultBranch]
    }

    if t.TriggerType == model.TriggerNoContactWarning {
        if t.Circle == "inner" || t.Priority == model.TriggerUrgent {
            return branches["urgent"]
        }
        return branches[defaultBranch]
    }

    if tmpl, ok := branches[roleOf(t, p)]; ok {
        return tmpl
    }
    return branches[defaultBranch]
}

// roleOf prefers the person's relationship type and falls back to whatever
// the trigger captured when the person record is absent.
func roleOf(t *model.Trigger, p *model.Person) string {
    if p != nil && p.RelationshipType != "" {
        return p.RelationshipType
    }
    if t.Role != "" {
        return t.Role
    }
    return t.Circle
}

func displayName(t *model.Trigger, p *model.Person) string {
    if p != nil && p.Name != "" {
        return p.Name
    }
    if t.PersonName != "" {
        return t.PersonName
    }
    return "there"
}

// FirstName takes the first token of a display name, skipping title or
// placeholder tokens like "Dr." and "Contact" when a second token exists.
func FirstName(fullName string) string {
    tokens := strings.Fields(fullName)
    if len(tokens) == 0 {
        return "there"
    }
    first := tokens[0]
    if strings.Contains(first, "Dr.") || strings.Contains(first, "Contact") {
        if len(tokens) > 1 {
            return tokens[1]
        }
    }
    return first
}
