// internal/model/trigger.go
package model

// Trigger types produced by the rule engine.
const (
    TriggerNoContactWarning   = "no_contact_warning"
    TriggerRelationshipCooling = "relationship_cooling"
    TriggerCheckInNeeded      = "check_in_needed"
)

// Trigger priorities, used for ranking. Distinct from Person priority tiers:
// a critical-priority person produces urgent triggers.
const (
    TriggerUrgent = "urgent"
    TriggerHigh   = "high"
    TriggerMedium = "medium"
    TriggerLow    = "low"
)

// Trigger is a rule-derived reason why a person warrants outreach now. It is
// ephemeral: rebuilt on every evaluation pass, never persisted.
type Trigger struct {
    PersonID        int    `json:"person_id"`
    PersonName      string `json:"person_name"`
    Circle          string `json:"circle"`
    Role            string `json:"role"`
    TriggerType     string `json:"trigger_type"`
    Priority        string `json:"priority"`
    Reason          string `json:"reason"`
    SuggestedAction string `json:"suggested_action"`
    DaysSince       *int   `json:"days_since"`
}
