package models

import "time"

// DocumentKind is the type of a generated document.
type DocumentKind string

const (
	DocumentKindMemo             DocumentKind = "memo"
	DocumentKindSummary          DocumentKind = "summary"
	DocumentKindComplianceReport DocumentKind = "compliance_report"
)

// GeneratedDocument is a memo/summary/report produced during a session and
// stored in the blob store.
type GeneratedDocument struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session_id"`
	Kind      DocumentKind `json:"kind"`
	FileURI   string       `json:"file_uri"`
	CreatedAt time.Time    `json:"created_at"`
}

// CreateDocumentRequest contains fields for recording a generated document.
type CreateDocumentRequest struct {
	SessionID string       `json:"session_id"`
	Kind      DocumentKind `json:"kind"`
	FileURI   string       `json:"file_uri"`
}
