package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	jwttoken "pkdconsole/internal/jwt_token"
	"pkdconsole/internal/verification/client"
	"pkdconsole/internal/verification/models"
	"pkdconsole/internal/verification/service"
	"pkdconsole/internal/verification/store/history"
	"pkdconsole/internal/verification/store/session"
)

const (
	testAdminToken = "test-admin-token"
	testMRZ        = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\n" +
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

type testEnv struct {
	router      http.Handler
	bearerToken string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtService := jwttoken.NewJWTService("test-signing-key", "pkdconsole", "console")
	token, err := jwtService.GenerateAccessToken(uuid.New(), "operator", time.Hour)
	require.NoError(t, err)

	adminHash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
	require.NoError(t, err)

	svc := service.New(
		&client.MockVerifier{},
		session.NewInMemoryStore(),
		service.WithHistory(history.NewInMemoryStore()),
		service.WithLogger(logger),
	)

	h := New(svc, logger, nil, jwttoken.NewJWTServiceAdapter(jwtService), string(adminHash))
	r := chi.NewRouter()
	h.Register(r)
	return &testEnv{router: r, bearerToken: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, decorate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.bearerToken)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func submitBody() map[string]any {
	return map[string]any{
		"sod_base64": "c29kLWJ5dGVz",
		"data_groups": []map[string]string{
			{"name": "DG1", "base64": "ZGctYnl0ZXM="},
		},
		"mrz_text": testMRZ,
	}
}

func TestSubmitAndFetchSession(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/verify", submitBody(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var sess models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.Equal(t, models.SessionCompleted, sess.State)
	require.Len(t, sess.Steps, models.StepCount)
	require.NotNil(t, sess.MRZ)
	assert.Equal(t, "L898902C3", sess.MRZ.DocumentNumber)

	w = env.do(t, http.MethodGet, "/verify/"+sess.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, sess.ID, fetched.ID)
	assert.Equal(t, models.SessionCompleted, fetched.State)
}

func TestSubmitRejectsInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/verify", map[string]any{"sod_base64": ""}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_input", resp["error"])
}

func TestRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/verify", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestToggleAndReset(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/verify", submitBody(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sess models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))

	w = env.do(t, http.MethodPost, "/verify/"+sess.ID.String()+"/steps/3/toggle", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var toggled models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.True(t, toggled.Steps[2].Expanded)

	w = env.do(t, http.MethodPost, "/verify/"+sess.ID.String()+"/steps/42/toggle", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/verify/"+sess.ID.String()+"/reset", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reset models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reset))
	assert.Equal(t, models.SessionIdle, reset.State)
}

func TestGetUnknownSessionIs404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/verify/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/verify/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDecodeMRZEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/mrz/decode", map[string]string{"text": testMRZ}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "L898902C3", resp["document_number"])

	// Malformed text is form feedback, not an HTTP error.
	w = env.do(t, http.MethodPost, "/mrz/decode", map[string]string{"text": "one line"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["decode_error"])
}

func TestQuickLookupEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/lookup", map[string]string{"subjectDn": "CN=Test"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result models.QuickLookupResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)

	w = env.do(t, http.MethodPost, "/lookup", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryRequiresAdminToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/verify", submitBody(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/history", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/history", nil, func(r *http.Request) {
		r.Header.Set("X-Admin-Token", testAdminToken)
	})
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.HistoryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusValid, entries[0].Status)
}
