package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jekyll_hyde/story"
)

func TestBuildAdvicePromptWithoutConsequences(t *testing.T) {
	p := BuildAdvicePrompt("Should I tell my boss?", false)

	assert.Contains(t, p, `Dilemma: "Should I tell my boss?"`)
	assert.Contains(t, p, `"jekyll": {`)
	assert.Contains(t, p, `"hyde": {`)
	assert.Contains(t, p, "under 50 words")
	assert.Contains(t, p, "markdown code fences")
	assert.Contains(t, p, "JSON object only")
	assert.NotContains(t, p, "short_term")
	assert.NotContains(t, p, "long_term")
}

func TestBuildAdvicePromptWithConsequences(t *testing.T) {
	p := BuildAdvicePrompt("Should I tell my boss?", true)

	assert.Contains(t, p, ConsequencesRule)
	assert.Contains(t, p, `"short_term": "string"`)
	assert.Contains(t, p, `"long_term": "string"`)
}

func TestBuildAdvicePromptIsDeterministic(t *testing.T) {
	assert.Equal(t, BuildAdvicePrompt("x", true), BuildAdvicePrompt("x", true))
}

func TestBuildAdvicePromptQuotesDilemma(t *testing.T) {
	p := BuildAdvicePrompt(`say "hi"`, false)
	assert.Contains(t, p, `Dilemma: "say \"hi\""`)
}

func TestBuildFinalPrompt(t *testing.T) {
	choices := []story.ChoiceRecord{
		{Dilemma: "Steal bread?", Picked: story.Jekyll, Novel: "Les Misérables"},
		{Dilemma: "Lie on a resume?", Picked: story.Hyde},
	}
	p := BuildFinalPrompt(choices, 1, 1)

	assert.Contains(t, p, "Choice history (2 total):")
	assert.Contains(t, p, `1. [Les Misérables] "Steal bread?" → chose Reason (Jekyll)`)
	assert.Contains(t, p, `2. [Custom] "Lie on a resume?" → chose Impulse (Hyde)`)
	assert.Contains(t, p, "Jekyll choices: 1")
	assert.Contains(t, p, "Hyde choices: 1")
	assert.Contains(t, p, `"literary_parallel"`)
	assert.Contains(t, p, "markdown code fences")
}
