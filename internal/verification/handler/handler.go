package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pkdconsole/internal/mrz"
	"pkdconsole/internal/platform/metrics"
	"pkdconsole/internal/platform/middleware"
	"pkdconsole/internal/verification/models"
	id "pkdconsole/pkg/domain"
	dErrors "pkdconsole/pkg/domain-errors"
)

// Service defines the interface for verification operations.
type Service interface {
	Submit(ctx context.Context, sessionID id.SessionID, req models.SubmitRequest) (*models.Session, error)
	GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Reset(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	ToggleStep(ctx context.Context, sessionID id.SessionID, ordinal int) (*models.Session, error)
	DecodeMRZ(text string) (*mrz.Record, error)
	QuickLookup(ctx context.Context, req models.QuickLookupRequest) (*models.QuickLookupResult, error)
	History(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

// Handler handles the verification console endpoints.
type Handler struct {
	logger         *slog.Logger
	service        Service
	metrics        *metrics.Metrics
	jwtValidator   middleware.JWTValidator
	adminTokenHash string
}

// New creates a new verification Handler.
func New(
	service Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator,
	adminTokenHash string) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		metrics:        metrics,
		jwtValidator:   jwtValidator,
		adminTokenHash: adminTokenHash,
	}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	router.Post("/verify", h.handleSubmit)
	router.Get("/verify/{sessionID}", h.handleGetSession)
	router.Post("/verify/{sessionID}/steps/{ordinal}/toggle", h.handleToggleStep)
	router.Post("/verify/{sessionID}/reset", h.handleReset)
	router.Post("/mrz/decode", h.handleDecodeMRZ)
	router.Post("/lookup", h.handleQuickLookup)

	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.adminTokenHash, h.logger))
		admin.Get("/history", h.handleHistory)
	})

	r.Mount("/", router)
}

// submitRequest wraps the submission payload with an optional session to
// resubmit into. Omitting it starts a fresh session.
type submitRequest struct {
	SessionID string `json:"session_id,omitempty"`
	models.SubmitRequest
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid submit request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var sessionID id.SessionID
	if req.SessionID != "" {
		var err error
		sessionID, err = id.ParseSessionID(req.SessionID)
		if err != nil {
			h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session_id"))
			return
		}
	}

	sess, err := h.service.Submit(ctx, sessionID, req.SubmitRequest)
	if err != nil {
		h.logAndWriteError(w, r, "submit failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}
	sess, err := h.service.GetSession(r.Context(), sessionID)
	if err != nil {
		h.logAndWriteError(w, r, "get session failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleToggleStep(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}
	ordinal, err := strconv.Atoi(chi.URLParam(r, "ordinal"))
	if err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid step ordinal"))
		return
	}
	sess, err := h.service.ToggleStep(r.Context(), sessionID, ordinal)
	if err != nil {
		h.logAndWriteError(w, r, "toggle step failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionIDParam(w, r)
	if !ok {
		return
	}
	sess, err := h.service.Reset(r.Context(), sessionID)
	if err != nil {
		h.logAndWriteError(w, r, "reset failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

type decodeMRZRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleDecodeMRZ(w http.ResponseWriter, r *http.Request) {
	var req decodeMRZRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	record, err := h.service.DecodeMRZ(req.Text)
	if err != nil {
		// Decode failures are form feedback, not server faults.
		h.writeJSON(w, http.StatusOK, map[string]string{
			"decode_error": dErrors.MessageOf(err),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) handleQuickLookup(w http.ResponseWriter, r *http.Request) {
	var req models.QuickLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	result, err := h.service.QuickLookup(r.Context(), req)
	if err != nil {
		h.logAndWriteError(w, r, "quick lookup failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid limit"))
			return
		}
		limit = n
	}
	entries, err := h.service.History(r.Context(), limit)
	if err != nil {
		h.logAndWriteError(w, r, "history listing failed", err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) sessionIDParam(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid session ID"))
		return id.SessionID{}, false
	}
	return sessionID, true
}

func (h *Handler) logAndWriteError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	} else {
		h.logger.WarnContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	h.writeError(w, err)
}

// writeError centralizes domain error translation to HTTP responses so all
// endpoints share one JSON error envelope.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(code),
		"message": dErrors.MessageOf(err),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
