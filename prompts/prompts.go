package prompts

import (
	"fmt"
	"strings"

	"jekyll_hyde/story"
)

const AdvicePrompt = `You are generating two contrasting advisory responses to a moral dilemma.

Dilemma: %q

Rules:
- Create TWO responses:
  - jekyll: empathetic, ethical, long-term thinking.
  - hyde: self-interested, reputation-focused, short-term thinking.
- Keep each advice under 50 words, 3-4 sentences.
%s- Do NOT wrap the output in markdown code fences.
- Respond with the JSON object only, no text before or after it.

Return ONLY valid JSON:

%s
`

const ConsequencesRule = "- Include short_term and long_term outcomes for each side.\n"

const FinalPrompt = `You are a psychological profiler.

A user has faced moral dilemmas and chosen between:
- Jekyll (altruistic, rational, long-term)
- Hyde (self-interested, impulsive, short-term)

Choice history (%d total):
%s

Jekyll choices: %d
Hyde choices: %d

Provide a deep psychological profile.

Rules:
- Do NOT wrap the output in markdown code fences.
- Respond with the JSON object only, no text before or after it.

Respond ONLY with valid JSON:

{
  "persona_name": "string",
  "persona_description": "2-3 sentences",
  "dominant_trait": "string",
  "shadow_trait": "string",
  "literary_parallel": "Character + work",
  "insight": "3-4 sentence psychologist message"
}
`

// BuildAdvicePrompt renders the two-sided advice prompt for a dilemma.
func BuildAdvicePrompt(dilemma string, consequences bool) string {
	rule := ""
	if consequences {
		rule = ConsequencesRule
	}
	return fmt.Sprintf(AdvicePrompt, dilemma, rule, adviceSchema(consequences))
}

func adviceSchema(consequences bool) string {
	var b strings.Builder
	b.WriteString("{\n")
	for i, side := range []story.Side{story.Jekyll, story.Hyde} {
		fmt.Fprintf(&b, "  %q: {\n", side)
		b.WriteString(`    "title": "string",` + "\n")
		if consequences {
			b.WriteString(`    "advice": "string",` + "\n")
			b.WriteString(`    "short_term": "string",` + "\n")
			b.WriteString(`    "long_term": "string"` + "\n")
		} else {
			b.WriteString(`    "advice": "string"` + "\n")
		}
		if i == 0 {
			b.WriteString("  },\n")
		} else {
			b.WriteString("  }\n")
		}
	}
	b.WriteString("}")
	return b.String()
}

// BuildFinalPrompt renders the profile prompt over the chronological choice history.
func BuildFinalPrompt(choices []story.ChoiceRecord, jekyll, hyde int) string {
	lines := make([]string, 0, len(choices))
	for i, c := range choices {
		novel := c.Novel
		if novel == "" {
			novel = "Custom"
		}
		picked := "Impulse (Hyde)"
		if c.Picked == story.Jekyll {
			picked = "Reason (Jekyll)"
		}
		lines = append(lines, fmt.Sprintf("%d. [%s] %q → chose %s", i+1, novel, c.Dilemma, picked))
	}
	return fmt.Sprintf(FinalPrompt, len(choices), strings.Join(lines, "\n"), jekyll, hyde)
}
