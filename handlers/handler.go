package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"jekyll_hyde/diagnostics"
	"jekyll_hyde/extract"
	"jekyll_hyde/ratelimit"
	"jekyll_hyde/report"
	"jekyll_hyde/story"
	"jekyll_hyde/templates"
)

const (
	defaultMaxDilemmaChars = 1000
	maxChoices             = 100
	maxBodyBytes           = 1 << 20
	defaultDiagnosticsRows = 50
	readyTimeout           = 2 * time.Second
)

// FailureLister reads back recorded generation failures.
type FailureLister interface {
	Recent(ctx context.Context, limit int) ([]diagnostics.Failure, error)
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the advice API. Generator is nil when no provider credential
// was configured; every generate request then fails with 500.
type Handler struct {
	Generator   Generator
	AdviceModel string
	FinalModel  string

	Limiter  *ratelimit.Limiter
	Recorder diagnostics.Recorder
	Failures FailureLister
	Store    Pinger // checked by /ready; nil when nothing needs checking
	Logger   *zap.Logger

	MaxDilemmaChars int
	RequestBudget   time.Duration

	// Debug exposes fallback reasons and the diagnostics endpoint.
	Debug bool
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// generateRequest is the body of POST /api/generate for both modes.
type generateRequest struct {
	Mode           string               `json:"mode"`
	Dilemma        string               `json:"dilemma"`
	ConsequencesOn bool                 `json:"consequencesOn"`
	Choices        []story.ChoiceRecord `json:"choices"`
	JekyllCount    int                  `json:"jekyllCount"`
	HydeCount      int                  `json:"hydeCount"`
}

type debugInfo struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type adviceBody struct {
	story.AdviceResponse
	Debug *debugInfo `json:"debug,omitempty"`
}

type personaBody struct {
	story.PersonaAnalysis
	Debug *debugInfo `json:"debug,omitempty"`
}

func (h *Handler) debugFor(out Outcome) *debugInfo {
	if !h.Debug || !out.Fallback {
		return nil
	}
	d := &debugInfo{Status: out.Stage + "_failed"}
	if out.Err != nil {
		d.Message = out.Err.Error()
	}
	return d
}

// Generate handles POST /api/generate.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.Generator == nil {
		h.logger().Error("generate request rejected: no provider credential configured")
		Error(w, http.StatusInternalServerError, "Server misconfigured")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	switch story.Mode(strings.ToLower(strings.TrimSpace(req.Mode))) {
	case "", story.ModeAdvice:
		h.generateAdvice(w, r, req)
	case story.ModeFinal:
		h.generateFinal(w, r, req)
	default:
		Error(w, http.StatusBadRequest, "Unknown mode")
	}
}

func (h *Handler) generateAdvice(w http.ResponseWriter, r *http.Request, req generateRequest) {
	dilemma := strings.TrimSpace(req.Dilemma)
	if dilemma == "" {
		Error(w, http.StatusBadRequest, "Dilemma is required")
		return
	}
	limit := h.MaxDilemmaChars
	if limit <= 0 {
		limit = defaultMaxDilemmaChars
	}
	if utf8.RuneCountInString(dilemma) > limit {
		Error(w, http.StatusBadRequest, "Dilemma must be "+strconv.Itoa(limit)+" characters or less")
		return
	}

	resp, out, err := h.Advise(r.Context(), dilemma, req.ConsequencesOn)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Server misconfigured")
		return
	}
	JSON(w, http.StatusOK, adviceBody{AdviceResponse: resp, Debug: h.debugFor(out)})
}

func (h *Handler) generateFinal(w http.ResponseWriter, r *http.Request, req generateRequest) {
	choices, msg := cleanChoices(req.Choices)
	if msg != "" {
		Error(w, http.StatusBadRequest, msg)
		return
	}

	jekyll, hyde := story.Tally(choices)
	if jekyll != req.JekyllCount || hyde != req.HydeCount {
		h.logger().Debug("submitted tallies disagree with choice history",
			zap.Int("jekyll_submitted", req.JekyllCount),
			zap.Int("hyde_submitted", req.HydeCount),
			zap.Int("jekyll", jekyll),
			zap.Int("hyde", hyde))
	}

	p, out, err := h.Analyze(r.Context(), choices, jekyll, hyde)
	if err != nil {
		Error(w, http.StatusInternalServerError, "Server misconfigured")
		return
	}
	JSON(w, http.StatusOK, personaBody{PersonaAnalysis: p, Debug: h.debugFor(out)})
}

// cleanChoices normalizes the submitted history and returns a client-facing
// message when it is unusable.
func cleanChoices(in []story.ChoiceRecord) ([]story.ChoiceRecord, string) {
	if len(in) == 0 {
		return nil, "Choices are required"
	}
	if len(in) > maxChoices {
		return nil, "Too many choices"
	}
	out := make([]story.ChoiceRecord, 0, len(in))
	for _, c := range in {
		c.Picked = story.Side(strings.ToLower(strings.TrimSpace(string(c.Picked))))
		if !c.Picked.Valid() {
			return nil, "Each choice must pick jekyll or hyde"
		}
		c.Dilemma = strings.TrimSpace(c.Dilemma)
		c.Novel = strings.TrimSpace(c.Novel)
		out = append(out, c)
	}
	return out, ""
}

// Dilemmas handles GET /api/dilemmas.
func (h *Handler) Dilemmas(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, story.NovelDilemmas)
}

type reportRequest struct {
	Profile     story.PersonaAnalysis `json:"profile"`
	Choices     []story.ChoiceRecord  `json:"choices"`
	JekyllCount int                   `json:"jekyllCount"`
	HydeCount   int                   `json:"hydeCount"`
}

// Report handles POST /api/report and returns the profile as a PDF attachment.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := extract.ValidatePersona(req.Profile); err != nil {
		Error(w, http.StatusBadRequest, "Profile is incomplete")
		return
	}

	jekyll, hyde := max(req.JekyllCount, 0), max(req.HydeCount, 0)
	var choices []story.ChoiceRecord
	if len(req.Choices) > 0 {
		var msg string
		choices, msg = cleanChoices(req.Choices)
		if msg != "" {
			Error(w, http.StatusBadRequest, msg)
			return
		}
		jekyll, hyde = story.Tally(choices)
	}

	var buf bytes.Buffer
	err := report.Write(&buf, report.Profile{
		Analysis: req.Profile,
		Choices:  choices,
		Jekyll:   jekyll,
		Hyde:     hyde,
	})
	if err != nil {
		h.logger().Error("failed to render report", zap.Error(err))
		Error(w, http.StatusInternalServerError, "Failed to generate report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="jekyll-or-hyde-profile.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger().Warn("failed to write report", zap.Error(err))
	}
}

// Diagnostics handles GET /api/diagnostics.
func (h *Handler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	if h.Failures == nil {
		Error(w, http.StatusNotFound, "Diagnostics disabled")
		return
	}
	limit := defaultDiagnosticsRows
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	failures, err := h.Failures.Recent(r.Context(), limit)
	if err != nil {
		h.logger().Error("failed to list failures", zap.Error(err))
		Error(w, http.StatusInternalServerError, "Failed to list failures")
		return
	}
	JSON(w, http.StatusOK, failures)
}

// Ready handles GET /ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := h.Store.Ping(ctx); err != nil {
			h.logger().Warn("readiness check failed", zap.Error(err))
			JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Index renders the landing page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index("Jekyll or Hyde", story.NovelDilemmas).Render(r.Context(), w); err != nil {
		h.logger().Warn("failed to render index", zap.Error(err))
	}
}
