// internal/model/candidate.go
package model

// ContactInfo carries the reachable addresses for a candidate.
type ContactInfo struct {
    Phone string `json:"phone,omitempty"`
    Email string `json:"email,omitempty"`
}

// LastContact summarizes when the person was last reached.
type LastContact struct {
    DaysAgo *int `json:"days_ago"`
}

// OutreachCandidate is a trigger bundled with the person's contact info and a
// drafted message, presented for a user decision. Rebuilt fresh on every pass.
type OutreachCandidate struct {
    ID           string      `json:"id"`
    PersonID     int         `json:"person_id"`
    PersonName   string      `json:"person_name"`
    Circle       string      `json:"circle"`
    Role         string      `json:"role"`
    TriggerType  string      `json:"trigger_type"`
    Priority     string      `json:"priority"`
    Reason       string      `json:"reason"`
    MessageDraft string      `json:"message_draft"`
    ContactInfo  ContactInfo `json:"contact_info"`
    LastContact  LastContact `json:"last_contact"`
    CanSend      bool        `json:"can_send"`
}
