package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkdconsole/internal/verification/models"
	"pkdconsole/pkg/platform/sentinel"
)

func TestSubmitDecodesResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/verify", r.URL.Path)

		var payload SubmitPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "c29k", payload.SODBase64)
		require.Len(t, payload.DataGroups, 1)

		_ = json.NewEncoder(w).Encode(models.VerificationResult{
			Status: models.StatusValid,
			SODSignatureValidation: &models.SODSignatureValidation{
				Valid:         true,
				HashAlgorithm: "SHA-256",
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPVerifier(srv.URL, time.Second)
	result, err := c.Submit(context.Background(), SubmitPayload{
		SODBase64:  "c29k",
		DataGroups: []models.DataGroupFile{{Name: "DG1", Base64: "ZGcx"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusValid, result.Status)
	assert.Equal(t, "SHA-256", result.SODSignatureValidation.HashAlgorithm)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPVerifier(srv.URL, time.Second)
	_, err := c.Submit(context.Background(), SubmitPayload{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}

func TestUnreachableVerifierIsUnavailable(t *testing.T) {
	c := NewHTTPVerifier("http://127.0.0.1:1", 200*time.Millisecond)
	_, err := c.ParseDG1(context.Background(), "ZGcx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrUnavailable))
}

func TestQuickLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/lookup", r.URL.Path)
		var req models.QuickLookupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(models.QuickLookupResult{
			Success: true,
			Validation: &models.CertificateChainValidation{
				Valid:      true,
				DSCSubject: req.SubjectDN,
			},
		})
	}))
	defer srv.Close()

	c := NewHTTPVerifier(srv.URL, time.Second)
	res, err := c.QuickLookup(context.Background(), models.QuickLookupRequest{SubjectDN: "CN=X"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "CN=X", res.Validation.DSCSubject)
}
