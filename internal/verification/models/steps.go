package models

// StepStatus is the per-step state machine value.
// pending -> running -> {success | warning | error}. Running is set for all
// eight steps at once when a submission starts, because the verifier
// computes the whole pipeline as one atomic operation.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepRunning StepStatus = "running"
	StepSuccess StepStatus = "success"
	StepWarning StepStatus = "warning"
	StepError   StepStatus = "error"
)

// IsValid checks if the step status is one of the supported enum values.
func (s StepStatus) IsValid() bool {
	switch s {
	case StepPending, StepRunning, StepSuccess, StepWarning, StepError:
		return true
	}
	return false
}

// Terminal reports whether the status is a resolved verdict.
func (s StepStatus) Terminal() bool {
	return s == StepSuccess || s == StepWarning || s == StepError
}

// StepCount is the fixed number of pipeline stages.
const StepCount = 8

// Stage ordinals, 1-based and stable. Step identity is the ordinal.
const (
	StageSODParse        = 1
	StageDSCExtraction   = 2
	StageTrustChain      = 3
	StageCSCALookup      = 4
	StageSODSignature    = 5
	StageDataGroupHashes = 6
	StageCRLCheck        = 7
	StageDSCRegistration = 8
)

// stageNames maps ordinals to their stable machine names.
var stageNames = [StepCount]string{
	"sod_parse",
	"dsc_extraction",
	"trust_chain",
	"csca_lookup",
	"sod_signature",
	"dg_hashes",
	"crl_check",
	"dsc_registration",
}

// StageName returns the stable machine name for a 1-based ordinal.
func StageName(ordinal int) string {
	if ordinal < 1 || ordinal > StepCount {
		return ""
	}
	return stageNames[ordinal-1]
}

// Step is one pipeline stage as rendered on the verification page.
type Step struct {
	Ordinal int        `json:"ordinal"`
	Name    string     `json:"name"`
	Status  StepStatus `json:"status"`
	// Message is derived deterministically from the verification result,
	// never freely chosen.
	Message string      `json:"message,omitempty"`
	Details *StepDetail `json:"details,omitempty"`
	// Expanded is UI state only; it is stored on the session copy and is
	// not part of the verification semantics.
	Expanded bool `json:"expanded"`
}

// StepDetail is a discriminated stage payload: exactly one field is non-nil,
// matching the step's ordinal.
type StepDetail struct {
	SOD          *SODParseDetail     `json:"sod,omitempty"`
	DSC          *DSCDetail          `json:"dsc,omitempty"`
	TrustChain   *TrustChainDetail   `json:"trust_chain,omitempty"`
	CSCA         *CSCADetail         `json:"csca,omitempty"`
	Signature    *SignatureDetail    `json:"signature,omitempty"`
	DataGroups   *DataGroupsDetail   `json:"data_groups,omitempty"`
	CRL          *CRLDetail          `json:"crl,omitempty"`
	Registration *RegistrationDetail `json:"registration,omitempty"`
}

// SODParseDetail carries the algorithm identifiers read from the SOD.
type SODParseDetail struct {
	HashAlgorithm      string `json:"hash_algorithm,omitempty"`
	SignatureAlgorithm string `json:"signature_algorithm,omitempty"`
}

// DSCDetail identifies the document signer certificate found in the SOD.
type DSCDetail struct {
	Subject      string `json:"subject"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// TrustChainDetail carries the chain validation verdict for display.
type TrustChainDetail struct {
	Valid            bool             `json:"valid"`
	ExpirationStatus ExpirationStatus `json:"expiration_status,omitempty"`
	ValidationError  string           `json:"validation_error,omitempty"`
}

// CSCADetail identifies the issuing country signing CA.
type CSCADetail struct {
	Subject string `json:"subject"`
}

// SignatureDetail carries the SOD signature verdict.
type SignatureDetail struct {
	Valid              bool   `json:"valid"`
	SignatureAlgorithm string `json:"signature_algorithm,omitempty"`
	Error              string `json:"error,omitempty"`
}

// DataGroupsDetail carries the per data group hash comparisons, one entry
// per data group name, exactly as reported by the verifier.
type DataGroupsDetail struct {
	TotalGroups   int                     `json:"total_groups"`
	ValidGroups   int                     `json:"valid_groups"`
	InvalidGroups int                     `json:"invalid_groups"`
	Groups        map[string]DGHashDetail `json:"groups,omitempty"`
}

// CRLDetail carries the revocation lookup outcome.
type CRLDetail struct {
	Status           CRLStatus `json:"status"`
	Issuer           string    `json:"issuer,omitempty"`
	RevocationReason string    `json:"revocation_reason,omitempty"`
}

// RegistrationDetail carries the DSC auto-registration outcome.
type RegistrationDetail struct {
	Status        RegistrationStatus `json:"status,omitempty"`
	CertificateID string             `json:"certificate_id,omitempty"`
	Error         string             `json:"error,omitempty"`
}
