// Package validation tracks multi-turn "fill in the missing report fields"
// conversations between a report request and its finalized report.
package validation

// State is the accumulated progress of one validation conversation.
type State struct {
	// ProvidedFields lists field names in the order the user supplied them.
	// Duplicates are kept.
	ProvidedFields    []string `json:"provided_fields"`
	CumulativePrompt  string   `json:"cumulative_prompt"`
	OriginalNarrative string   `json:"original_narrative"`
	AttemptCount      int      `json:"attempt_count"`
}

// clone returns a copy that shares no memory with s.
func (s State) clone() State {
	out := s
	if s.ProvidedFields != nil {
		out.ProvidedFields = make([]string, len(s.ProvidedFields))
		copy(out.ProvidedFields, s.ProvidedFields)
	}
	return out
}
