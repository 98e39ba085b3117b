package handlers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jekyll_hyde/diagnostics"
	"jekyll_hyde/extract"
	"jekyll_hyde/fallback"
	"jekyll_hyde/generation"
	"jekyll_hyde/prompts"
	"jekyll_hyde/story"
)

const defaultRequestBudget = 55 * time.Second

// ErrNotConfigured is returned when no provider credential was configured.
var ErrNotConfigured = errors.New("generation provider is not configured")

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Outcome says whether a pipeline answer is live or the canned fallback.
type Outcome struct {
	Fallback bool
	Stage    string // stage that failed: "generate" or "extract"
	Err      error
}

// Advise runs the two-sided advice pipeline. Generation and extraction failures
// are answered with the fallback payload; the only error is ErrNotConfigured.
func (h *Handler) Advise(ctx context.Context, dilemma string, consequences bool) (story.AdviceResponse, Outcome, error) {
	if h.Generator == nil {
		return story.AdviceResponse{}, Outcome{}, ErrNotConfigured
	}

	var resp story.AdviceResponse
	out := h.run(ctx, story.ModeAdvice, h.AdviceModel, prompts.BuildAdvicePrompt(dilemma, consequences), func(raw string) error {
		var err error
		resp, err = extract.Advice(raw, consequences)
		return err
	})
	if out.Fallback {
		resp = fallback.Advice(consequences)
	}
	return resp, out, nil
}

// Analyze runs the final persona pipeline over the choice history. It falls back
// the same way Advise does.
func (h *Handler) Analyze(ctx context.Context, choices []story.ChoiceRecord, jekyll, hyde int) (story.PersonaAnalysis, Outcome, error) {
	if h.Generator == nil {
		return story.PersonaAnalysis{}, Outcome{}, ErrNotConfigured
	}

	var p story.PersonaAnalysis
	out := h.run(ctx, story.ModeFinal, h.FinalModel, prompts.BuildFinalPrompt(choices, jekyll, hyde), func(raw string) error {
		var err error
		p, err = extract.Persona(raw)
		return err
	})
	if out.Fallback {
		p = fallback.Persona()
	}
	return p, out, nil
}

func (h *Handler) run(ctx context.Context, mode story.Mode, model, prompt string, decode func(raw string) error) Outcome {
	budget := h.RequestBudget
	if budget <= 0 {
		budget = defaultRequestBudget
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	raw, err := h.Generator.Generate(ctx, model, prompt)
	if err != nil {
		h.recordFailure(ctx, mode, "generate", err, "")
		return Outcome{Fallback: true, Stage: "generate", Err: err}
	}
	if err := decode(raw); err != nil {
		h.recordFailure(ctx, mode, "extract", err, raw)
		return Outcome{Fallback: true, Stage: "extract", Err: err}
	}
	return Outcome{}
}

func (h *Handler) recordFailure(ctx context.Context, mode story.Mode, stage string, err error, raw string) {
	kind := failureKind(err)
	h.logger().Warn("serving fallback response",
		zap.String("mode", string(mode)),
		zap.String("stage", stage),
		zap.String("kind", kind),
		zap.Error(err),
		zap.String("raw_text", raw))

	f := diagnostics.Failure{
		Mode:    string(mode),
		Stage:   stage,
		Kind:    kind,
		Reason:  err.Error(),
		RawText: raw,
	}
	if rerr := h.recorder().Record(context.WithoutCancel(ctx), f); rerr != nil {
		h.logger().Error("failed to record generation failure", zap.Error(rerr))
	}
}

func (h *Handler) recorder() diagnostics.Recorder {
	if h.Recorder == nil {
		return diagnostics.Nop{}
	}
	return h.Recorder
}

func failureKind(err error) string {
	var (
		ge *generation.Error
		pe *extract.ParseError
		ve *extract.ValidationError
	)
	switch {
	case errors.As(err, &ge):
		return ge.Kind.String()
	case errors.As(err, &pe):
		return "parse"
	case errors.As(err, &ve):
		return "validation"
	default:
		return "other"
	}
}
