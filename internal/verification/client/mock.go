package client

import (
	"context"
	"fmt"
	"time"

	"pkdconsole/internal/verification/models"
	"pkdconsole/pkg/platform/sentinel"
)

// MockVerifier returns deterministic results with a configurable latency to
// mimic real-world calls. Used in tests and for local runs without a
// verifier deployment.
type MockVerifier struct {
	Latency time.Duration
	// Unavailable makes every call fail at the transport level.
	Unavailable bool
	// Result overrides the canned response when set.
	Result *models.VerificationResult
}

func (m *MockVerifier) Submit(_ context.Context, payload SubmitPayload) (*models.VerificationResult, error) {
	time.Sleep(m.Latency)
	if m.Unavailable {
		return nil, fmt.Errorf("%w: mock verifier down", sentinel.ErrUnavailable)
	}
	if m.Result != nil {
		return m.Result, nil
	}

	details := make(map[string]models.DGHashDetail, len(payload.DataGroups))
	for _, dg := range payload.DataGroups {
		details[dg.Name] = models.DGHashDetail{
			Valid:        true,
			ExpectedHash: "cafe01",
			ActualHash:   "cafe01",
		}
	}
	return &models.VerificationResult{
		Status: models.StatusValid,
		CertificateChainValidation: &models.CertificateChainValidation{
			Valid:            true,
			ExpirationStatus: models.ExpirationValid,
			DSCSubject:       "CN=Mock DSC,O=PKD Console,C=ZZ",
			CSCASubject:      "CN=Mock CSCA,C=ZZ",
			CRLStatus:        models.CRLClear,
		},
		SODSignatureValidation: &models.SODSignatureValidation{
			Valid:              true,
			HashAlgorithm:      "SHA-256",
			SignatureAlgorithm: "SHA256withRSA",
		},
		DataGroupValidation: &models.DataGroupValidation{
			TotalGroups: len(payload.DataGroups),
			ValidGroups: len(payload.DataGroups),
			Details:     details,
		},
		DSCAutoRegistration: &models.DSCAutoRegistration{
			Status:        models.RegistrationAlready,
			CertificateID: "mock-dsc",
		},
	}, nil
}

func (m *MockVerifier) ParseDG1(_ context.Context, _ string) (*models.DG1ParseResult, error) {
	time.Sleep(m.Latency)
	if m.Unavailable {
		return nil, fmt.Errorf("%w: mock verifier down", sentinel.ErrUnavailable)
	}
	return &models.DG1ParseResult{
		Success:        true,
		DocumentType:   "P",
		IssuingCountry: "UTO",
		FullName:       "ANNA MARIA ERIKSSON",
		DocumentNumber: "L898902C3",
		Nationality:    "UTO",
		DateOfBirth:    "1974-08-12",
		Sex:            "F",
		DateOfExpiry:   "2012-04-15",
	}, nil
}

func (m *MockVerifier) ParseDG2(_ context.Context, _ string) (*models.DG2ParseResult, error) {
	time.Sleep(m.Latency)
	if m.Unavailable {
		return nil, fmt.Errorf("%w: mock verifier down", sentinel.ErrUnavailable)
	}
	return &models.DG2ParseResult{
		Success:   true,
		FaceCount: 1,
		FaceImages: []models.FaceImage{
			{Index: 0, ImageFormat: "jpeg", ImageSize: 12345, Width: 320, Height: 400},
		},
	}, nil
}

func (m *MockVerifier) QuickLookup(_ context.Context, req models.QuickLookupRequest) (*models.QuickLookupResult, error) {
	time.Sleep(m.Latency)
	if m.Unavailable {
		return nil, fmt.Errorf("%w: mock verifier down", sentinel.ErrUnavailable)
	}
	subject := req.SubjectDN
	if subject == "" {
		subject = "CN=Mock DSC,O=PKD Console,C=ZZ"
	}
	return &models.QuickLookupResult{
		Success: true,
		Validation: &models.CertificateChainValidation{
			Valid:            true,
			ExpirationStatus: models.ExpirationValid,
			DSCSubject:       subject,
			CSCASubject:      "CN=Mock CSCA,C=ZZ",
			CRLStatus:        models.CRLClear,
		},
	}, nil
}
