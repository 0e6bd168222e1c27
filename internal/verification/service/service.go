// Package service owns the verification pipeline state machine.
//
// A session moves idle -> submitting -> {completed | failed} and back to
// idle on reset. All session state is replaced wholesale on each
// transition; async verifier responses carry the submission token they were
// issued for and are discarded when a newer submission (or a reset) has
// rotated it.
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"pkdconsole/internal/mrz"
	"pkdconsole/internal/verification/client"
	vmetrics "pkdconsole/internal/verification/metrics"
	"pkdconsole/internal/verification/models"
	"pkdconsole/internal/verification/projector"
	"pkdconsole/internal/verification/store/history"
	"pkdconsole/internal/verification/store/session"
	id "pkdconsole/pkg/domain"
	derrors "pkdconsole/pkg/domain-errors"
	audit "pkdconsole/pkg/platform/audit"
	"pkdconsole/pkg/platform/audit/publisher"
	"pkdconsole/pkg/platform/sentinel"
	"pkdconsole/pkg/requestcontext"
)

// Service orchestrates verification sessions against the external verifier.
type Service struct {
	verifier client.Verifier
	sessions session.Store
	history  history.Store
	audit    *publisher.Publisher
	metrics  *vmetrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures the service.
type Option func(*Service)

// WithHistory records completed verifications into the given store.
func WithHistory(store history.Store) Option {
	return func(s *Service) { s.history = store }
}

// WithAudit emits audit events through the given publisher.
func WithAudit(pub *publisher.Publisher) Option {
	return func(s *Service) { s.audit = pub }
}

// WithMetrics records verification metrics.
func WithMetrics(m *vmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New builds the verification service.
func New(verifier client.Verifier, sessions session.Store, opts ...Option) *Service {
	s := &Service{
		verifier: verifier,
		sessions: sessions,
		logger:   slog.Default(),
		tracer:   otel.Tracer("pkdconsole/verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit runs one verification. A zero sessionID creates a fresh session;
// submitting on an existing session supersedes any in-flight attempt by
// rotating the submission token.
//
// Transport failures are not returned as errors: the session comes back in
// the failed state with every step reset to pending, because a pipeline
// that did not run has no verdicts. Semantic stage failures come back as a
// completed session with error or warning steps.
func (s *Service) Submit(ctx context.Context, sessionID id.SessionID, req models.SubmitRequest) (*models.Session, error) {
	if err := validateSubmitRequest(req); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "verification.submit")
	defer span.End()

	sess, err := s.loadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("session.id", sess.ID.String()))

	// Decode the MRZ upload. Malformed MRZ text degrades to a form note;
	// partial MRZ data is still useful and never blocks verification.
	var mrzRecord *mrz.Record
	sess.MRZDecodeError = ""
	if req.MRZText != "" {
		mrzRecord, err = mrz.Decode(req.MRZText)
		if err != nil {
			sess.MRZDecodeError = derrors.MessageOf(err)
			if s.metrics != nil {
				s.metrics.MRZDecodeFailures.Inc()
			}
		}
	}

	token := id.NewSubmissionID()
	now := requestcontext.Now(ctx)

	sess.Submission = token
	sess.State = models.SessionSubmitting
	sess.Steps = projector.Running()
	sess.MRZ = mrzRecord
	sess.Result = nil
	sess.DG1, sess.DG1ParseError = nil, ""
	sess.DG2, sess.DG2ParseError = nil, ""
	sess.Error = ""
	sess.UpdatedAt = now
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to save session")
	}

	s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    string(audit.EventVerificationSubmitted),
		SessionID: sess.ID.String(),
	})

	start := time.Now()
	result, submitErr := s.verifier.Submit(ctx, client.SubmitPayload{
		SODBase64:  req.SODBase64,
		DataGroups: req.DataGroups,
		MRZData:    mrzRecord,
	})
	if s.metrics != nil {
		s.metrics.ObserveSubmit(start)
	}

	if submitErr != nil {
		return s.completeFailed(ctx, sess.ID, token, submitErr)
	}
	return s.completeVerified(ctx, sess.ID, token, req, mrzRecord, result, span)
}

// completeFailed handles the transport-failure branch: all step state is
// wiped and a retryable message surfaced. Nothing of the failed attempt is
// retained.
func (s *Service) completeFailed(ctx context.Context, sessionID id.SessionID, token id.SubmissionID, cause error) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	sess, err := s.sessions.Update(ctx, sessionID, func(cur *models.Session) error {
		if cur.Submission != token {
			return sentinel.ErrStale
		}
		cur.State = models.SessionFailed
		cur.Steps = projector.Pending()
		cur.Result = nil
		cur.Error = "verification service unavailable, try again"
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return s.resolveUpdateErr(ctx, sessionID, err)
	}

	s.logger.WarnContext(ctx, "verification submission failed",
		"session_id", sessionID.String(),
		"error", cause,
	)
	if s.metrics != nil {
		s.metrics.IncrementSubmission("failed")
	}
	s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    string(audit.EventVerificationFailed),
		SessionID: sessionID.String(),
		Reason:    "transport",
	})
	return sess, nil
}

// completeVerified projects the result into the step list and runs the
// dependent DG1/DG2 parses, then commits the whole state under the store's
// Update so the token compare and the write are one atomic step. A parse
// window during which a newer submission lands must not let this stale
// result overwrite it.
func (s *Service) completeVerified(
	ctx context.Context,
	sessionID id.SessionID,
	token id.SubmissionID,
	req models.SubmitRequest,
	mrzRecord *mrz.Record,
	result *models.VerificationResult,
	span trace.Span,
) (*models.Session, error) {
	steps := projector.Project(result)
	parsed := s.parseDataGroups(ctx, req)

	now := requestcontext.Now(ctx)
	sess, err := s.sessions.Update(ctx, sessionID, func(cur *models.Session) error {
		if cur.Submission != token {
			return sentinel.ErrStale
		}
		cur.State = models.SessionCompleted
		cur.Steps = steps
		cur.Result = result
		cur.Error = ""
		cur.DG1, cur.DG1ParseError = parsed.dg1, parsed.dg1Err
		cur.DG2, cur.DG2ParseError = parsed.dg2, parsed.dg2Err
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return s.resolveUpdateErr(ctx, sessionID, err)
	}

	span.SetAttributes(attribute.String("verification.status", string(result.Status)))
	s.recordOutcome(ctx, sess, mrzRecord, result, now)
	return sess, nil
}

// resolveUpdateErr maps a failed session Update to the caller-visible
// outcome. A stale token means a newer submission or a reset owns the
// session now; the current state is returned untouched.
func (s *Service) resolveUpdateErr(ctx context.Context, sessionID id.SessionID, err error) (*models.Session, error) {
	switch {
	case errors.Is(err, sentinel.ErrStale):
		if s.metrics != nil {
			s.metrics.StaleResponsesSeen.Inc()
		}
		s.logger.InfoContext(ctx, "discarding superseded verifier response",
			"session_id", sessionID.String(),
		)
		sess, findErr := s.sessions.Find(ctx, sessionID)
		if findErr != nil {
			return nil, wrapSessionErr(findErr)
		}
		return sess, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// Session expired or was reset away while the call was in flight;
		// there is nothing to update.
		return nil, derrors.New(derrors.CodeNotFound, "session no longer exists")
	default:
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to save session")
	}
}

// dgParseOutcome carries the dependent DG1/DG2 parse results until they are
// committed together with the verification result.
type dgParseOutcome struct {
	dg1    *models.DG1ParseResult
	dg1Err string
	dg2    *models.DG2ParseResult
	dg2Err string
}

// parseDataGroups issues the DG1/DG2 parse calls concurrently when the
// corresponding files were part of the upload set. Failures are isolated
// from each other and never abort the completed verification.
func (s *Service) parseDataGroups(ctx context.Context, req models.SubmitRequest) dgParseOutcome {
	var out dgParseOutcome
	dg1 := findDataGroup(req.DataGroups, "DG1")
	dg2 := findDataGroup(req.DataGroups, "DG2")
	if dg1 == "" && dg2 == "" {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	if dg1 != "" {
		g.Go(func() error {
			parsed, err := s.verifier.ParseDG1(gctx, dg1)
			switch {
			case err != nil:
				out.dg1Err = "could not parse DG1"
			case !parsed.Success:
				out.dg1Err = parsed.Error
			default:
				out.dg1 = parsed
			}
			return nil
		})
	}
	if dg2 != "" {
		g.Go(func() error {
			parsed, err := s.verifier.ParseDG2(gctx, dg2)
			switch {
			case err != nil:
				out.dg2Err = "could not parse DG2"
			case !parsed.Success:
				out.dg2Err = parsed.Error
			default:
				out.dg2 = parsed
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) recordOutcome(ctx context.Context, sess *models.Session, mrzRecord *mrz.Record, result *models.VerificationResult, now time.Time) {
	if s.metrics != nil {
		s.metrics.IncrementSubmission("completed")
		for _, step := range sess.Steps {
			if step.Status == models.StepError || step.Status == models.StepWarning {
				s.metrics.IncrementStageFailure(step.Name, string(step.Status))
			}
		}
	}

	s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    string(audit.EventVerificationCompleted),
		SessionID: sess.ID.String(),
		Outcome:   string(result.Status),
	})
	if reg := result.DSCAutoRegistration; reg != nil && reg.Status == models.RegistrationNew {
		s.emit(ctx, audit.Event{
			Timestamp: now,
			Action:    string(audit.EventDSCAutoRegistered),
			SessionID: sess.ID.String(),
			Reason:    reg.CertificateID,
		})
	}

	if s.history != nil {
		entry := models.HistoryEntry{
			ID:            sess.ID,
			SubmittedAt:   now,
			Status:        result.Status,
			StageStatuses: stageStatuses(sess.Steps),
		}
		if mrzRecord != nil {
			entry.DocumentNumber = mrzRecord.DocumentNumber
		}
		if dg := result.DataGroupValidation; dg != nil {
			entry.InvalidGroups = dg.InvalidGroups
		}
		if err := s.history.Record(ctx, entry); err != nil {
			s.logger.WarnContext(ctx, "failed to record verification history",
				"session_id", sess.ID.String(),
				"error", err,
			)
		}
	}
}

// GetSession returns the current session snapshot.
func (s *Service) GetSession(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	return sess, nil
}

// Reset returns the session to idle: steps pending, result cleared, token
// rotated so any in-flight verifier response is discarded on arrival.
func (s *Service) Reset(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	now := requestcontext.Now(ctx)
	sess, err := s.sessions.Update(ctx, sessionID, func(cur *models.Session) error {
		cur.Submission = id.NewSubmissionID()
		cur.State = models.SessionIdle
		cur.Steps = projector.Pending()
		cur.MRZ = nil
		cur.MRZDecodeError = ""
		cur.Result = nil
		cur.DG1, cur.DG1ParseError = nil, ""
		cur.DG2, cur.DG2ParseError = nil, ""
		cur.Error = ""
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrapSessionErr(err)
	}

	s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    string(audit.EventSessionReset),
		SessionID: sessionID.String(),
	})
	return sess, nil
}

// ToggleStep flips the UI-only expanded flag of one step. The session is
// rewritten wholesale, never partially mutated.
func (s *Service) ToggleStep(ctx context.Context, sessionID id.SessionID, ordinal int) (*models.Session, error) {
	if ordinal < 1 || ordinal > models.StepCount {
		return nil, derrors.New(derrors.CodeBadRequest, "step ordinal must be between 1 and 8")
	}
	now := requestcontext.Now(ctx)
	sess, err := s.sessions.Update(ctx, sessionID, func(cur *models.Session) error {
		cur.Steps[ordinal-1].Expanded = !cur.Steps[ordinal-1].Expanded
		cur.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	return sess, nil
}

// DecodeMRZ decodes uploaded MRZ text outside of a submission, for the
// form's preview field.
func (s *Service) DecodeMRZ(text string) (*mrz.Record, error) {
	record, err := mrz.Decode(text)
	if err != nil {
		if s.metrics != nil {
			s.metrics.MRZDecodeFailures.Inc()
		}
		return nil, err
	}
	return record, nil
}

// QuickLookup fetches the trust-chain status of a single certificate,
// independent of the 8-stage pipeline.
func (s *Service) QuickLookup(ctx context.Context, req models.QuickLookupRequest) (*models.QuickLookupResult, error) {
	if req.SubjectDN == "" && req.Fingerprint == "" {
		return nil, derrors.New(derrors.CodeBadRequest, "subjectDn or fingerprint is required")
	}

	result, err := s.verifier.QuickLookup(ctx, req)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, derrors.Wrap(err, derrors.CodeUnavailable, "lookup service unavailable")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "lookup failed")
	}

	s.emit(ctx, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Action:    string(audit.EventQuickLookupPerformed),
		Outcome:   lookupOutcome(result),
	})
	return result, nil
}

// History lists recent completed verifications, most recent first.
func (s *Service) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	entries, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list history")
	}
	return entries, nil
}

func (s *Service) loadOrCreate(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	if sessionID.IsZero() {
		now := requestcontext.Now(ctx)
		return &models.Session{
			ID:        id.NewSessionID(),
			State:     models.SessionIdle,
			Steps:     projector.Pending(),
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	sess, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, wrapSessionErr(err)
	}
	return sess, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	event = event.WithOperator(requestcontext.OperatorID(ctx))
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}

func validateSubmitRequest(req models.SubmitRequest) error {
	if strings.TrimSpace(req.SODBase64) == "" {
		return derrors.New(derrors.CodeInvalidInput, "sod_base64 is required")
	}
	if _, err := base64.StdEncoding.DecodeString(req.SODBase64); err != nil {
		return derrors.New(derrors.CodeInvalidInput, "sod_base64 is not valid base64")
	}
	for _, dg := range req.DataGroups {
		if dg.Name == "" {
			return derrors.New(derrors.CodeInvalidInput, "data group name is required")
		}
		if _, err := base64.StdEncoding.DecodeString(dg.Base64); err != nil {
			return derrors.New(derrors.CodeInvalidInput, "data group "+dg.Name+" is not valid base64")
		}
	}
	return nil
}

func wrapSessionErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeNotFound, "session not found")
	}
	return derrors.Wrap(err, derrors.CodeInternal, "session store failure")
}

func findDataGroup(groups []models.DataGroupFile, name string) string {
	for _, dg := range groups {
		if strings.EqualFold(dg.Name, name) {
			return dg.Base64
		}
	}
	return ""
}

func lookupOutcome(result *models.QuickLookupResult) string {
	if result == nil || !result.Success {
		return "not_found"
	}
	if result.Validation != nil && result.Validation.Valid {
		return "valid"
	}
	return "invalid"
}

func stageStatuses(steps []models.Step) []models.StepStatus {
	out := make([]models.StepStatus, len(steps))
	for i, step := range steps {
		out[i] = step.Status
	}
	return out
}
