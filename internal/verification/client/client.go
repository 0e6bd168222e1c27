// Package client talks to the external passive authentication verifier.
//
// The verifier performs all cryptography (SOD signature check, trust chain
// build, CRL lookup, DG hash computation) and returns one opaque structured
// result per submission. This console never re-derives those facts.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pkdconsole/internal/mrz"
	"pkdconsole/internal/verification/models"
	"pkdconsole/pkg/platform/sentinel"
)

// SubmitPayload is the verifier's submission wire format. MRZ data decoded
// from an uploaded text file is merged in when present.
type SubmitPayload struct {
	SODBase64  string                 `json:"sodBase64"`
	DataGroups []models.DataGroupFile `json:"dataGroups"`
	MRZData    *mrz.Record            `json:"mrzData,omitempty"`
}

// Verifier is the seam to the external verification service. All four
// operations are single atomic calls; there is no streaming variant.
type Verifier interface {
	Submit(ctx context.Context, payload SubmitPayload) (*models.VerificationResult, error)
	ParseDG1(ctx context.Context, base64 string) (*models.DG1ParseResult, error)
	ParseDG2(ctx context.Context, base64 string) (*models.DG2ParseResult, error)
	QuickLookup(ctx context.Context, req models.QuickLookupRequest) (*models.QuickLookupResult, error)
}

// HTTPVerifier calls the verifier's REST API.
type HTTPVerifier struct {
	baseURL string
	http    *http.Client
}

// NewHTTPVerifier builds a verifier client. The timeout bounds every call;
// there is no per-request cancellation beyond the context.
func NewHTTPVerifier(baseURL string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPVerifier) Submit(ctx context.Context, payload SubmitPayload) (*models.VerificationResult, error) {
	var result models.VerificationResult
	if err := c.post(ctx, "/api/v1/verify", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPVerifier) ParseDG1(ctx context.Context, base64 string) (*models.DG1ParseResult, error) {
	var result models.DG1ParseResult
	if err := c.post(ctx, "/api/v1/parse/dg1", map[string]string{"base64": base64}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPVerifier) ParseDG2(ctx context.Context, base64 string) (*models.DG2ParseResult, error) {
	var result models.DG2ParseResult
	if err := c.post(ctx, "/api/v1/parse/dg2", map[string]string{"base64": base64}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPVerifier) QuickLookup(ctx context.Context, req models.QuickLookupRequest) (*models.QuickLookupResult, error) {
	var result models.QuickLookupResult
	if err := c.post(ctx, "/api/v1/lookup", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// post sends a JSON request and decodes the response. Any transport-level
// problem (dial, timeout, non-2xx, undecodable body) is reported as
// sentinel.ErrUnavailable so the service layer can distinguish "the
// pipeline did not run" from a semantic verification failure.
func (c *HTTPVerifier) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", sentinel.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %s returned %d", sentinel.ErrUnavailable, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", sentinel.ErrUnavailable, path, err)
	}
	return nil
}
