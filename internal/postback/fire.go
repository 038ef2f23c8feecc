package postback

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/logging"
	"github.com/trackforge/s2s/internal/models"
)

const logAttemptTimeout = 10 * time.Second

// TemplateSource supplies the global default postback template.
type TemplateSource interface {
	PostbackTemplate(ctx context.Context) (string, error)
}

// AttemptLogger persists one immutable attempt record per firing.
type AttemptLogger interface {
	LogAttempt(ctx context.Context, log *models.PostbackLog) error
}

// FireInput identifies the conversion event a postback fires for.
type FireInput struct {
	ConversionID *int64
	ClickID      *int64
	// OfferTemplate, when non-empty, overrides the global default.
	OfferTemplate string
	Context       Context
}

// Firer selects a template, resolves it, dispatches it, and logs the attempt.
type Firer struct {
	templates  TemplateSource
	attempts   AttemptLogger
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// NewFirer wires a Firer from its collaborators. A nil logger falls back to the
// shared application logger.
func NewFirer(templates TemplateSource, attempts AttemptLogger, logger *zap.Logger) *Firer {
	if logger == nil {
		logger = logging.L()
	}
	return &Firer{
		templates:  templates,
		attempts:   attempts,
		resolver:   NewResolver(),
		dispatcher: NewDispatcher(),
		logger:     logger,
	}
}

// Fire runs one postback attempt to completion: Pending -> Resolving ->
// Dispatching -> Logged. Every failure mode still reaches Logged with exactly
// one attempt record; transport and configuration failures are returned inside
// the Result, never as errors. There is no retry path.
func (f *Firer) Fire(ctx context.Context, input FireInput) Result {
	template := input.OfferTemplate
	if template == "" {
		global, err := f.templates.PostbackTemplate(ctx)
		if err != nil {
			f.logger.Error("failed to load global postback template", zap.Error(err))
		}
		template = global
	}

	var result Result
	if template == "" {
		// Nothing to resolve; short-circuit to a synthetic failure
		result = Result{Err: "no postback template configured"}
	} else {
		resolved := f.resolver.Resolve(template, input.Context)
		result = f.dispatcher.Dispatch(ctx, resolved)
	}

	f.logAttempt(ctx, input, result)
	return result
}

func (f *Firer) logAttempt(ctx context.Context, input FireInput, result Result) {
	// Dispatch may have consumed the caller's entire deadline; the attempt
	// record is written regardless.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), logAttemptTimeout)
	defer cancel()

	attempt := &models.PostbackLog{
		ConversionID: input.ConversionID,
		ClickID:      input.ClickID,
		URL:          result.URL,
		ResponseBody: result.Body,
		DurationMs:   result.DurationMs,
	}
	if result.StatusCode != 0 {
		status := result.StatusCode
		attempt.HTTPStatus = &status
	}
	if result.Err != "" {
		errMsg := result.Err
		attempt.ErrorMessage = &errMsg
	}

	if err := f.attempts.LogAttempt(ctx, attempt); err != nil {
		// Attempt logging is best-effort; the firing result still returns
		f.logger.Error("failed to log postback attempt",
			zap.String("url", result.URL),
			zap.Error(err))
		return
	}

	f.logger.Info("postback fired",
		zap.String("url", result.URL),
		zap.String("transaction_id", input.Context.TransactionID),
		zap.Int("http_status", result.StatusCode),
		zap.Int64("duration_ms", result.DurationMs),
		zap.Bool("success", result.Success))
}
