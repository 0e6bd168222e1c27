package models

// Types in this file mirror the external verifier's response wire format
// (camelCase JSON, matching that service's API). The result is opaque to
// this console: once received it is immutable and is the sole source of
// truth for step derivation. The projector only reformats it, it never
// re-derives security facts.

// OverallStatus is the verifier's overall verdict.
type OverallStatus string

const (
	StatusValid   OverallStatus = "VALID"
	StatusInvalid OverallStatus = "INVALID"
	StatusError   OverallStatus = "ERROR"
)

// IsValid checks if the status is one of the supported enum values.
func (s OverallStatus) IsValid() bool {
	switch s {
	case StatusValid, StatusInvalid, StatusError:
		return true
	}
	return false
}

// ExpirationStatus qualifies temporal validity of the certificate chain,
// orthogonal to signature correctness.
type ExpirationStatus string

const (
	ExpirationValid   ExpirationStatus = "VALID"
	ExpirationWarning ExpirationStatus = "WARNING"
	ExpirationExpired ExpirationStatus = "EXPIRED"
)

// CRLStatus is the closed set of CRL lookup outcomes.
type CRLStatus string

const (
	// CRLClear: a CRL was located and the DSC is not on it.
	CRLClear CRLStatus = "CHECKED_CLEAR"
	// CRLRevoked: a CRL was located and lists the DSC.
	CRLRevoked CRLStatus = "REVOKED"
	// CRLNotFound: no CRL could be located. Absence of revocation data is
	// not proof of validity.
	CRLNotFound CRLStatus = "NOT_FOUND"
)

// RegistrationStatus is the closed set of DSC auto-registration outcomes.
type RegistrationStatus string

const (
	RegistrationNew     RegistrationStatus = "REGISTERED"
	RegistrationAlready RegistrationStatus = "ALREADY_REGISTERED"
	RegistrationFailed  RegistrationStatus = "FAILED"
)

// VerificationResult is the full nested result of one atomic passive
// authentication run on the external verifier.
type VerificationResult struct {
	Status                     OverallStatus               `json:"status"`
	CertificateChainValidation *CertificateChainValidation `json:"certificateChainValidation,omitempty"`
	SODSignatureValidation     *SODSignatureValidation     `json:"sodSignatureValidation,omitempty"`
	DataGroupValidation        *DataGroupValidation        `json:"dataGroupValidation,omitempty"`
	DSCAutoRegistration        *DSCAutoRegistration        `json:"dscAutoRegistration,omitempty"`
}

// CertificateChainValidation reports the DSC to CSCA trust chain check,
// including the CRL lookup performed against the chain.
type CertificateChainValidation struct {
	Valid            bool             `json:"valid"`
	ValidationError  string           `json:"validationError,omitempty"`
	ExpirationStatus ExpirationStatus `json:"expirationStatus,omitempty"`
	DSCSubject       string           `json:"dscSubject,omitempty"`
	DSCSerialNumber  string           `json:"dscSerialNumber,omitempty"`
	CSCASubject      string           `json:"cscaSubject,omitempty"`
	CRLStatus        CRLStatus        `json:"crlStatus,omitempty"`
	CRLIssuer        string           `json:"crlIssuer,omitempty"`
	RevocationReason string           `json:"revocationReason,omitempty"`
}

// SODSignatureValidation reports the signature check over the security
// object document.
type SODSignatureValidation struct {
	Valid              bool   `json:"valid"`
	HashAlgorithm      string `json:"hashAlgorithm,omitempty"`
	SignatureAlgorithm string `json:"signatureAlgorithm,omitempty"`
	Error              string `json:"error,omitempty"`
}

// DataGroupValidation reports the per data group hash comparison.
type DataGroupValidation struct {
	TotalGroups   int                     `json:"totalGroups"`
	ValidGroups   int                     `json:"validGroups"`
	InvalidGroups int                     `json:"invalidGroups"`
	Details       map[string]DGHashDetail `json:"details,omitempty"`
}

// DGHashDetail is the hash comparison for one data group. Valid equals a
// case-insensitive byte-for-byte comparison of the two hex hashes; the
// equality is established by the verifier, the console only displays it.
type DGHashDetail struct {
	Valid        bool   `json:"valid"`
	ExpectedHash string `json:"expectedHash"`
	ActualHash   string `json:"actualHash"`
}

// DSCAutoRegistration reports the best-effort registration of a previously
// unknown DSC into the certificate store. Never a verification gate.
type DSCAutoRegistration struct {
	Status        RegistrationStatus `json:"status"`
	CertificateID string             `json:"certificateId,omitempty"`
	Error         string             `json:"error,omitempty"`
}
