package reports

import "time"

const (
	StatusComplete   = "complete"
	StatusNeedsInput = "needs_input"

	maxNarrativeLength = 20000
)

// Report is a finalized incident report.
type Report struct {
	ID            string            `json:"id"`
	OrgID         string            `json:"org_id"`
	UserID        string            `json:"user_id"`
	OffenseID     string            `json:"offense_id"`
	Narrative     string            `json:"narrative"`
	Fields        map[string]string `json:"fields"`
	MissingFields []string          `json:"missing_fields"`
	Body          string            `json:"body"`
	Attempts      int               `json:"attempts"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Complete reports whether every required field was filled.
func (r *Report) Complete() bool {
	return len(r.MissingFields) == 0
}

// GenerateInput starts a report from an officer's narrative.
type GenerateInput struct {
	OrgID     string
	UserID    string
	OffenseID string `json:"offense_id"`
	Narrative string `json:"narrative"`
}

// ProvideInput answers the fields a pending session asked for.
type ProvideInput struct {
	OrgID      string
	UserID     string
	SessionKey string
	Fields     map[string]string `json:"fields"`
}

// Outcome is the result of a generate or provide step.
type Outcome struct {
	Status        string   `json:"status"`
	Report        *Report  `json:"report,omitempty"`
	SessionKey    string   `json:"session_key,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
	Attempt       int      `json:"attempt"`
	MaxAttempts   int      `json:"max_attempts"`
}

// SessionView is the caller-visible progress of a pending session.
type SessionView struct {
	SessionKey     string    `json:"session_key"`
	OffenseID      string    `json:"offense_id"`
	ProvidedFields []string  `json:"provided_fields"`
	AttemptCount   int       `json:"attempt_count"`
	MaxAttempts    int       `json:"max_attempts"`
	StartedAt      time.Time `json:"started_at"`
}

// ListFilter pages through an org's reports, newest first.
type ListFilter struct {
	Limit  int
	Offset int
}
