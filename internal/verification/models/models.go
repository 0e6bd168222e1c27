package models

import (
	"time"

	"pkdconsole/internal/mrz"
	id "pkdconsole/pkg/domain"
)

// SessionState is the controller state machine value.
// idle -> submitting -> {completed | failed}, back to idle on reset.
type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionSubmitting SessionState = "submitting"
	SessionCompleted  SessionState = "completed"
	SessionFailed     SessionState = "failed"
)

// IsValid checks if the session state is one of the supported enum values.
func (s SessionState) IsValid() bool {
	switch s {
	case SessionIdle, SessionSubmitting, SessionCompleted, SessionFailed:
		return true
	}
	return false
}

// Session is the whole mutable state of one verification page. It is only
// ever replaced wholesale in the store; async completions must carry the
// current Submission token or be discarded.
type Session struct {
	ID         id.SessionID    `json:"id"`
	Submission id.SubmissionID `json:"submission"`
	State      SessionState    `json:"state"`
	Steps      []Step          `json:"steps"`

	MRZ *mrz.Record `json:"mrz,omitempty"`
	// MRZDecodeError is a form validation note; a malformed MRZ upload
	// never blocks the submission itself.
	MRZDecodeError string              `json:"mrz_decode_error,omitempty"`
	Result         *VerificationResult `json:"result,omitempty"`

	// Dependent parse side effects, each independently fallible. A parse
	// failure never hides the completed verification result.
	DG1           *DG1ParseResult `json:"dg1,omitempty"`
	DG1ParseError string          `json:"dg1_parse_error,omitempty"`
	DG2           *DG2ParseResult `json:"dg2,omitempty"`
	DG2ParseError string          `json:"dg2_parse_error,omitempty"`

	// Error holds the retryable transport error message when State is
	// failed. Semantic stage failures are not errors and never set it.
	Error string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep-enough copy for wholesale replacement: the step
// slice is copied, the immutable result/record pointers are shared.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Steps = make([]Step, len(s.Steps))
	copy(cp.Steps, s.Steps)
	return &cp
}

// DataGroupFile is one uploaded data group, base64 encoded.
type DataGroupFile struct {
	Name   string `json:"name"`
	Base64 string `json:"base64"`
}

// SubmitRequest is the console-facing submission payload.
type SubmitRequest struct {
	SODBase64  string          `json:"sod_base64"`
	DataGroups []DataGroupFile `json:"data_groups"`
	// MRZText is the raw content of an uploaded MRZ text file; it is
	// decoded server side and merged into the verifier payload.
	MRZText string `json:"mrz_text,omitempty"`
}

// DG1ParseResult mirrors the external parseDG1 response.
type DG1ParseResult struct {
	Success        bool   `json:"success"`
	DocumentType   string `json:"documentType,omitempty"`
	IssuingCountry string `json:"issuingCountry,omitempty"`
	FullName       string `json:"fullName,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	DateOfBirth    string `json:"dateOfBirth,omitempty"`
	Sex            string `json:"sex,omitempty"`
	DateOfExpiry   string `json:"dateOfExpiry,omitempty"`
	Error          string `json:"error,omitempty"`
}

// FaceImage is one face image extracted from DG2.
type FaceImage struct {
	Index        int    `json:"index"`
	ImageFormat  string `json:"imageFormat"`
	ImageSize    int    `json:"imageSize"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	ImageDataURL string `json:"imageDataUrl,omitempty"`
}

// DG2ParseResult mirrors the external parseDG2 response.
type DG2ParseResult struct {
	Success    bool        `json:"success"`
	FaceCount  int         `json:"faceCount,omitempty"`
	FaceImages []FaceImage `json:"faceImages,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// QuickLookupRequest asks for the trust-chain status of a single
// certificate, independent of the 8-stage pipeline. Exactly one of the two
// selectors should be set.
type QuickLookupRequest struct {
	SubjectDN   string `json:"subjectDn,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// QuickLookupResult mirrors the external quickLookup response.
type QuickLookupResult struct {
	Success    bool                        `json:"success"`
	Validation *CertificateChainValidation `json:"validation,omitempty"`
	Error      string                      `json:"error,omitempty"`
}

// HistoryEntry is one completed verification kept for the console's
// history view.
type HistoryEntry struct {
	ID             id.SessionID  `json:"id"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	DocumentNumber string        `json:"document_number,omitempty"`
	Status         OverallStatus `json:"status"`
	InvalidGroups  int           `json:"invalid_groups"`
	StageStatuses  []StepStatus  `json:"stage_statuses"`
}
