package archive

import "time"

// Document is a finalized report handed to the archive.
type Document struct {
	ReportID      string
	OrgID         string
	OffenseID     string
	MissingFields int
	CreatedAt     time.Time
	// Payload is marshaled as the object body.
	Payload any
}

// ManifestEntry is one JSONL line in an org's monthly manifest.
type ManifestEntry struct {
	ReportID      string `json:"report_id"`
	OffenseID     string `json:"offense_id"`
	S3Key         string `json:"s3_key"`
	Complete      bool   `json:"complete"`
	MissingFields int    `json:"missing_fields"`
	ArchivedAt    string `json:"archived_at"`
}
