package evaluate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/drpaneas/resonance/internal/judge"
	"github.com/drpaneas/resonance/internal/judgment"
	"github.com/drpaneas/resonance/internal/observability"
	"github.com/drpaneas/resonance/internal/persona"
	"github.com/drpaneas/resonance/internal/progress"
	"github.com/drpaneas/resonance/internal/prompt"
	"github.com/drpaneas/resonance/internal/textutil"
)

// DefaultConcurrency is the number of judge calls in flight per message.
const DefaultConcurrency = 4

var (
	ErrNoMessages = errors.New("no messages to evaluate")
	ErrNoPersonas = errors.New("no personas to evaluate against")
)

// PairStatus tracks one (message, persona) evaluation.
type PairStatus uint8

const (
	StatusPending PairStatus = iota
	StatusPrompted
	StatusValidated
	StatusRejected
	StatusFailed
)

func (s PairStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusPrompted:
		return "prompted"
	case StatusValidated:
		return "validated"
	case StatusRejected:
		return "rejected"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("PairStatus(%d)", uint8(s))
	}
}

// Stats counts pair outcomes over a run.
type Stats struct {
	Pairs      int `json:"pairs"`
	Validated  int `json:"validated"`
	Rejected   int `json:"rejected"`
	Failed     int `json:"failed"`
	NoCoverage int `json:"no_coverage"`
}

type pairResult struct {
	status   PairStatus
	judgment *judgment.Judgment
	err      error
}

// Runner evaluates messages against a persona cohort with a Judge.
type Runner struct {
	judge       judge.Judge
	concurrency int
	progress    progress.Callback
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds the judge calls in flight per message. Values
// below 1 run pairs one at a time.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithProgress reports one event per finished pair.
func WithProgress(cb progress.Callback) Option {
	return func(r *Runner) {
		if cb != nil {
			r.progress = cb
		}
	}
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner returns a Runner that scores prompts with j.
func NewRunner(j judge.Judge, opts ...Option) *Runner {
	r := &Runner{
		judge:       j,
		concurrency: DefaultConcurrency,
		progress:    progress.NopCallback,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every message against every persona in cohort using role's
// template and returns the evaluations ranked by average score. Failed and
// rejected pairs are logged and skipped; only an unusable configuration or
// a cancelled context ends the run early.
func (r *Runner) Run(ctx context.Context, messages []string, role persona.Role, cohort []string) ([]MessageEvaluation, Stats, error) {
	var stats Stats
	tmpl, err := prompt.ForRole(role)
	if err != nil {
		return nil, stats, err
	}
	if len(messages) == 0 {
		return nil, stats, ErrNoMessages
	}
	if len(cohort) == 0 {
		return nil, stats, fmt.Errorf("%w for role %s", ErrNoPersonas, role)
	}

	r.logger.InfoContext(ctx, "testing messages",
		"role", role, "messages", len(messages), "personas", len(cohort), "concurrency", r.concurrency)

	t := &tracker{cb: r.progress, total: len(messages) * len(cohort)}
	t.emit()

	evals := make([]MessageEvaluation, 0, len(messages))
	for i, msg := range messages {
		ev, err := r.evaluateMessage(ctx, tmpl, i, msg, cohort, t)
		if err != nil {
			return nil, stats, err
		}
		stats.Pairs += ev.Evaluated
		stats.Validated += len(ev.DetailedResponses)
		stats.Rejected += ev.Rejected
		stats.Failed += ev.Failed
		if ev.NoCoverage {
			stats.NoCoverage++
		}
		evals = append(evals, ev)
	}

	Rank(evals)
	r.logger.InfoContext(ctx, "evaluation complete",
		"pairs", stats.Pairs, "validated", stats.Validated,
		"rejected", stats.Rejected, "failed", stats.Failed, "no_coverage", stats.NoCoverage)
	return evals, stats, nil
}

func (r *Runner) evaluateMessage(ctx context.Context, tmpl *prompt.Template, index int, msg string, cohort []string, t *tracker) (MessageEvaluation, error) {
	ctx, span := observability.Tracer().Start(ctx, "evaluate.message", trace.WithAttributes(
		attribute.Int("message.index", index),
		attribute.String("role", tmpl.Role.String()),
		attribute.Int("personas", len(cohort)),
	))
	defer span.End()

	// Results are slotted by persona index so aggregation order does not
	// depend on which judge call returns first.
	results := make([]pairResult, len(cohort))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, p := range cohort {
		g.Go(func() error {
			results[i] = r.evaluatePair(ctx, tmpl, msg, i, p)
			t.advance()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return MessageEvaluation{}, err
	}

	valid := make([]judgment.Judgment, 0, len(results))
	var rejected, failed int
	for _, res := range results {
		switch res.status {
		case StatusValidated:
			valid = append(valid, *res.judgment)
		case StatusRejected:
			rejected++
		default:
			failed++
		}
	}

	ev := Aggregate(msg, valid)
	ev.Evaluated = len(cohort)
	ev.Rejected = rejected
	ev.Failed = failed
	span.SetAttributes(
		attribute.Float64("average_score", ev.AverageScore),
		attribute.Int("validated", len(valid)),
	)
	if ev.NoCoverage {
		r.logger.WarnContext(ctx, "no valid responses for message",
			"message", textutil.Truncate(msg, 50, "..."), "rejected", rejected, "failed", failed)
	}
	return ev, nil
}

func (r *Runner) evaluatePair(ctx context.Context, tmpl *prompt.Template, msg string, index int, personaText string) pairResult {
	res := pairResult{status: StatusPending}
	if err := ctx.Err(); err != nil {
		res.status, res.err = StatusFailed, err
		return res
	}

	text, err := tmpl.Compose(personaText, msg)
	if err != nil {
		r.logger.WarnContext(ctx, "error processing persona", "persona", index, "error", err)
		res.status, res.err = StatusFailed, err
		return res
	}
	res.status = StatusPrompted

	ctx, span := observability.Tracer().Start(ctx, "judge.evaluate", trace.WithAttributes(
		attribute.Int("persona.index", index),
		attribute.String("score_field", tmpl.Schema.ScoreField),
	))
	defer span.End()

	raw, err := r.judge.Evaluate(ctx, judge.Request{System: tmpl.SystemPrompt(), Prompt: text})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if ctx.Err() == nil {
			r.logger.WarnContext(ctx, "judge call failed", "persona", index, "error", err)
		}
		res.status, res.err = StatusFailed, err
		return res
	}

	j, err := judgment.Validate(raw, tmpl.Schema)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.WarnContext(ctx, "invalid judgment", "persona", index, "error", err)
		res.status, res.err = StatusRejected, err
		return res
	}
	span.SetAttributes(attribute.Int("score", j.Score))
	r.logger.DebugContext(ctx, "judgment accepted", "persona", index, tmpl.Schema.ScoreField, j.Score)
	res.status, res.judgment = StatusValidated, j
	return res
}

// tracker serializes progress callbacks from concurrent pairs.
type tracker struct {
	mu    sync.Mutex
	cb    progress.Callback
	done  int
	total int
}

func (t *tracker) advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	t.emitLocked()
}

func (t *tracker) emit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitLocked()
}

func (t *tracker) emitLocked() {
	t.cb(progress.Event{
		Stage:   progress.StageEvaluate,
		Message: "Testing messages",
		Done:    t.done,
		Total:   t.total,
	})
}
