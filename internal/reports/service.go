package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/incident-report-ai/internal/archive"
	"github.com/wolfman30/incident-report-ai/internal/llm"
	"github.com/wolfman30/incident-report-ai/internal/observability/metrics"
	"github.com/wolfman30/incident-report-ai/internal/validation"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

// Archiver receives finalized reports for retention.
type Archiver interface {
	ArchiveReport(ctx context.Context, doc archive.Document) error
}

// Options tunes generation.
type Options struct {
	MaxAttempts int
	MaxTokens   int32
	Temperature float32
	LLMTimeout  time.Duration
}

// Service drives report generation and the follow-up loop for missing fields.
type Service struct {
	llm      llm.Client
	store    validation.Store
	repo     Repository
	archiver Archiver
	opts     Options
	logger   *logging.Logger
	tracer   trace.Tracer

	validationMetrics *metrics.ValidationMetrics
	reportMetrics     *metrics.ReportMetrics

	now   func() time.Time
	newID func() string
}

// NewService creates a report service. MaxAttempts defaults to 3.
func NewService(client llm.Client, store validation.Store, repo Repository, opts Options, logger *logging.Logger) *Service {
	if client == nil || store == nil || repo == nil {
		panic("reports: llm client, validation store and repository are required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		llm:    client,
		store:  store,
		repo:   repo,
		opts:   opts,
		logger: logger,
		tracer: otel.Tracer("incident-report.internal.reports"),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// WithArchiver enables copying finalized reports to long-term storage.
func (s *Service) WithArchiver(a Archiver) *Service {
	s.archiver = a
	return s
}

// WithMetrics attaches session and report metrics.
func (s *Service) WithMetrics(v *metrics.ValidationMetrics, r *metrics.ReportMetrics) *Service {
	s.validationMetrics = v
	s.reportMetrics = r
	return s
}

// Generate drafts a report from a narrative. When required fields are still
// missing it opens a validation session and returns its key.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*Outcome, error) {
	offense, ok := LookupOffense(strings.TrimSpace(in.OffenseID))
	if !ok {
		return nil, ErrUnknownOffense
	}
	narrative := strings.TrimSpace(in.Narrative)
	if narrative == "" || utf8.RuneCountInString(narrative) > maxNarrativeLength {
		return nil, ErrInvalidNarrative
	}
	if strings.TrimSpace(in.UserID) == "" || strings.TrimSpace(in.OrgID) == "" {
		return nil, errors.New("reports: org and user are required")
	}

	ctx, span := s.tracer.Start(ctx, "reports.generate", trace.WithAttributes(
		attribute.String("offense.id", offense.ID),
	))
	defer span.End()

	prompt := initialPrompt(offense, narrative)
	result, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	missing := missingFields(offense, result, nil)
	if len(missing) == 0 {
		return s.finalize(ctx, in.OrgID, in.UserID, offense, narrative, result, nil, nil, 1)
	}

	key := validation.GenerateSessionKey(in.UserID, offense.ID)
	state := validation.State{
		ProvidedFields:    []string{},
		CumulativePrompt:  prompt,
		OriginalNarrative: narrative,
		AttemptCount:      1,
	}
	if err := s.store.Set(ctx, key, state); err != nil {
		return nil, fmt.Errorf("reports: save session: %w", err)
	}
	s.validationMetrics.ObserveSessionEvent("created")
	s.logger.Info("validation session opened",
		"session_key", key,
		"offense_id", offense.ID,
		"missing_fields", len(missing),
	)

	return &Outcome{
		Status:        StatusNeedsInput,
		SessionKey:    key,
		MissingFields: missing,
		Attempt:       1,
		MaxAttempts:   s.opts.MaxAttempts,
	}, nil
}

// ProvideFields feeds answers into a pending session. The report is finalized
// once nothing is missing or the attempt limit is reached.
func (s *Service) ProvideFields(ctx context.Context, in ProvideInput) (*Outcome, error) {
	offense, err := s.ownedOffense(in.SessionKey, in.UserID)
	if err != nil {
		return nil, err
	}
	if err := validateAnswers(offense, in.Fields); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "reports.provide_fields", trace.WithAttributes(
		attribute.String("offense.id", offense.ID),
	))
	defer span.End()

	state, ok, err := s.store.Get(ctx, in.SessionKey)
	if err != nil {
		return nil, fmt.Errorf("reports: load session: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	prompt, names := appendFields(state.CumulativePrompt, in.Fields)
	state.CumulativePrompt = prompt
	state.ProvidedFields = append(state.ProvidedFields, names...)
	state.AttemptCount++

	result, err := s.complete(ctx, state.CumulativePrompt)
	if err != nil {
		return nil, err
	}

	answered := promptAnswers(state.CumulativePrompt)
	missing := missingFields(offense, result, answered)
	if len(missing) > 0 && state.AttemptCount < s.opts.MaxAttempts {
		if err := s.store.Set(ctx, in.SessionKey, state); err != nil {
			return nil, fmt.Errorf("reports: save session: %w", err)
		}
		s.validationMetrics.ObserveSessionEvent("updated")
		return &Outcome{
			Status:        StatusNeedsInput,
			SessionKey:    in.SessionKey,
			MissingFields: missing,
			Attempt:       state.AttemptCount,
			MaxAttempts:   s.opts.MaxAttempts,
		}, nil
	}

	out, err := s.finalize(ctx, in.OrgID, in.UserID, offense, state.OriginalNarrative, result, answered, missing, state.AttemptCount)
	if err != nil {
		return nil, err
	}
	if err := s.store.Clear(ctx, in.SessionKey); err != nil {
		s.logger.Warn("failed to clear finished session", "session_key", in.SessionKey, "error", err)
	}
	s.validationMetrics.ObserveSessionEvent("completed")
	s.validationMetrics.ObserveAttempts(state.AttemptCount)
	return out, nil
}

// Session reports the progress of a pending session owned by userID.
func (s *Service) Session(ctx context.Context, userID, key string) (*SessionView, error) {
	offense, err := s.ownedOffense(key, userID)
	if err != nil {
		return nil, err
	}
	state, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reports: load session: %w", err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}
	started, _ := validation.ParseSessionKeyTime(key)
	provided := state.ProvidedFields
	if provided == nil {
		provided = []string{}
	}
	return &SessionView{
		SessionKey:     key,
		OffenseID:      offense.ID,
		ProvidedFields: provided,
		AttemptCount:   state.AttemptCount,
		MaxAttempts:    s.opts.MaxAttempts,
		StartedAt:      started.UTC(),
	}, nil
}

// Abandon discards a pending session owned by userID.
func (s *Service) Abandon(ctx context.Context, userID, key string) error {
	if _, err := s.ownedOffense(key, userID); err != nil {
		return err
	}
	_, ok, err := s.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("reports: load session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	if err := s.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("reports: clear session: %w", err)
	}
	s.validationMetrics.ObserveSessionEvent("abandoned")
	return nil
}

// Get returns one of the org's finalized reports.
func (s *Service) Get(ctx context.Context, orgID, id string) (*Report, error) {
	return s.repo.GetByID(ctx, orgID, id)
}

// List returns the org's finalized reports, newest first.
func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]*Report, error) {
	return s.repo.ListByOrg(ctx, orgID, filter)
}

// ownedOffense resolves the offense of a key generated for userID. Foreign and
// malformed keys look the same as expired ones.
func (s *Service) ownedOffense(key, userID string) (Offense, error) {
	offenseID, ok := validation.OffenseForUser(key, userID)
	if !ok {
		return Offense{}, ErrSessionNotFound
	}
	offense, ok := LookupOffense(offenseID)
	if !ok {
		return Offense{}, ErrSessionNotFound
	}
	return offense, nil
}

func validateAnswers(offense Offense, fields map[string]string) error {
	if len(fields) == 0 {
		return ErrInvalidFields
	}
	for name, value := range fields {
		if !offense.requires(name) || strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidFields, name)
		}
	}
	return nil
}

func (s *Service) complete(ctx context.Context, prompt string) (completion, error) {
	if s.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.LLMTimeout)
		defer cancel()
	}

	resp, err := s.llm.Complete(ctx, llm.Request{
		System:      []string{systemPrompt},
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		return completion{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	result, err := parseCompletion(resp.Text)
	if err != nil {
		s.logger.Warn("unreadable model output", "error", err, "stop_reason", resp.StopReason)
		return completion{}, err
	}
	return result, nil
}

func (s *Service) finalize(
	ctx context.Context,
	orgID, userID string,
	offense Offense,
	narrative string,
	result completion,
	answered map[string]string,
	missing []string,
	attempts int,
) (*Outcome, error) {
	if result.Report == "" {
		return nil, fmt.Errorf("%w: empty report body", ErrMalformedCompletion)
	}

	fields := make(map[string]string, len(result.Fields)+len(answered))
	for k, v := range result.Fields {
		fields[k] = v
	}
	for k, v := range answered {
		if _, ok := fields[k]; !ok {
			fields[k] = strings.TrimSpace(v)
		}
	}
	if missing == nil {
		missing = []string{}
	}

	report := &Report{
		ID:            s.newID(),
		OrgID:         orgID,
		UserID:        userID,
		OffenseID:     offense.ID,
		Narrative:     narrative,
		Fields:        fields,
		MissingFields: missing,
		Body:          result.Report,
		Attempts:      attempts,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("reports: persist: %w", err)
	}
	s.reportMetrics.ObserveFinalized(offense.ID, report.Complete())
	s.logger.Info("report finalized",
		"report_id", report.ID,
		"org_id", orgID,
		"offense_id", offense.ID,
		"attempts", attempts,
		"missing_fields", len(missing),
	)

	if s.archiver != nil {
		if err := s.archiver.ArchiveReport(ctx, archive.Document{
			ReportID:      report.ID,
			OrgID:         report.OrgID,
			OffenseID:     report.OffenseID,
			MissingFields: len(report.MissingFields),
			CreatedAt:     report.CreatedAt,
			Payload:       report,
		}); err != nil {
			s.logger.Error("failed to archive report", "report_id", report.ID, "error", err)
		}
	}

	return &Outcome{
		Status:        StatusComplete,
		Report:        report,
		MissingFields: report.MissingFields,
		Attempt:       attempts,
		MaxAttempts:   s.opts.MaxAttempts,
	}, nil
}
