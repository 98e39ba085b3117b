// Package extract locates, normalizes and validates the JSON payload inside free-form
// model output. Model instructions about output format are never trusted.
package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"jekyll_hyde/story"
)

// ParseError means no JSON object could be recovered from the text.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse model output: " + e.Reason
}

// ValidationError names the first required field that is missing or blank.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate model output: missing or empty field %q", e.Field)
}

// sideAliases maps every label either side has been known by to its canonical side.
var sideAliases = map[string]story.Side{
	"jekyll":    story.Jekyll,
	"dr_jekyll": story.Jekyll,
	"selfless":  story.Jekyll,
	"hyde":      story.Hyde,
	"mr_hyde":   story.Hyde,
	"selfish":   story.Hyde,
}

// Object returns the first JSON object recoverable from raw.
func Object(raw string) (gjson.Result, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return gjson.Result{}, &ParseError{Reason: "empty response"}
	}
	if obj, ok := parseObject(cleaned); ok {
		return obj, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return gjson.Result{}, &ParseError{Reason: "no JSON object found"}
	}
	if obj, ok := parseObject(cleaned[start : end+1]); ok {
		return obj, nil
	}
	return gjson.Result{}, &ParseError{Reason: "embedded JSON object is malformed"}
}

func parseObject(s string) (gjson.Result, bool) {
	if !gjson.Valid(s) {
		return gjson.Result{}, false
	}
	res := gjson.Parse(s)
	return res, res.IsObject()
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop the info string, e.g. "json"
		if nl := strings.IndexByte(s, '\n'); nl != -1 && !strings.ContainsAny(s[:nl], "{}") {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// fields is a JSON object keyed by canonical snake_case names.
type fields map[string]gjson.Result

func normalize(obj gjson.Result) fields {
	out := make(fields)
	obj.ForEach(func(k, v gjson.Result) bool {
		key := canonicalKey(k.String())
		if _, dup := out[key]; !dup {
			out[key] = v
		}
		return true
	})
	return out
}

// canonicalKey folds camelCase, kebab-case and spaced keys into lower snake_case.
func canonicalKey(k string) string {
	runes := []rune(strings.TrimSpace(k))
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (f fields) str(key string) string {
	v, ok := f[key]
	if !ok || v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

// Advice extracts and validates a two-sided advice payload.
func Advice(raw string, consequences bool) (story.AdviceResponse, error) {
	obj, err := Object(raw)
	if err != nil {
		return story.AdviceResponse{}, err
	}

	sides := make(map[story.Side]fields, 2)
	obj.ForEach(func(k, v gjson.Result) bool {
		side, ok := sideAliases[canonicalKey(k.String())]
		if !ok || !v.IsObject() {
			return true
		}
		if _, seen := sides[side]; !seen {
			sides[side] = normalize(v)
		}
		return true
	})
	for _, side := range []story.Side{story.Jekyll, story.Hyde} {
		if _, ok := sides[side]; !ok {
			return story.AdviceResponse{}, &ValidationError{Field: string(side)}
		}
	}

	resp := story.AdviceResponse{
		Jekyll: sideAdvice(sides[story.Jekyll]),
		Hyde:   sideAdvice(sides[story.Hyde]),
	}
	if err := ValidateAdvice(resp, consequences); err != nil {
		return story.AdviceResponse{}, err
	}
	return resp, nil
}

func sideAdvice(f fields) story.SideAdvice {
	return story.SideAdvice{
		Title:     f.str("title"),
		Advice:    f.str("advice"),
		ShortTerm: f.str("short_term"),
		LongTerm:  f.str("long_term"),
	}
}

// Persona extracts and validates a persona analysis payload.
func Persona(raw string) (story.PersonaAnalysis, error) {
	obj, err := Object(raw)
	if err != nil {
		return story.PersonaAnalysis{}, err
	}
	f := normalize(obj)
	p := story.PersonaAnalysis{
		PersonaName:        f.str("persona_name"),
		PersonaDescription: f.str("persona_description"),
		DominantTrait:      f.str("dominant_trait"),
		ShadowTrait:        f.str("shadow_trait"),
		LiteraryParallel:   f.str("literary_parallel"),
		Insight:            f.str("insight"),
	}
	if err := ValidatePersona(p); err != nil {
		return story.PersonaAnalysis{}, err
	}
	return p, nil
}

type requirement struct {
	field string
	value string
}

func firstBlank(reqs []requirement) error {
	for _, r := range reqs {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field}
		}
	}
	return nil
}

// ValidateAdvice checks required fields. Consequence fields are required only when
// consequences is true; otherwise they may be present or absent.
func ValidateAdvice(resp story.AdviceResponse, consequences bool) error {
	var reqs []requirement
	for _, s := range []struct {
		side   story.Side
		advice story.SideAdvice
	}{{story.Jekyll, resp.Jekyll}, {story.Hyde, resp.Hyde}} {
		prefix := string(s.side) + "."
		reqs = append(reqs,
			requirement{prefix + "title", s.advice.Title},
			requirement{prefix + "advice", s.advice.Advice},
		)
		if consequences {
			reqs = append(reqs,
				requirement{prefix + "short_term", s.advice.ShortTerm},
				requirement{prefix + "long_term", s.advice.LongTerm},
			)
		}
	}
	return firstBlank(reqs)
}

// ValidatePersona checks that all six profile fields are present.
func ValidatePersona(p story.PersonaAnalysis) error {
	return firstBlank([]requirement{
		{"persona_name", p.PersonaName},
		{"persona_description", p.PersonaDescription},
		{"dominant_trait", p.DominantTrait},
		{"shadow_trait", p.ShadowTrait},
		{"literary_parallel", p.LiteraryParallel},
		{"insight", p.Insight},
	})
}
