package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jekyll_hyde/story"
)

func TestGetVerdict(t *testing.T) {
	assert.Equal(t, "JEKYLL", GetVerdict(3, 1).Label)
	assert.Equal(t, "HYDE", GetVerdict(1, 3).Label)
	assert.Equal(t, "BALANCED", GetVerdict(2, 2).Label)
	assert.Equal(t, "BALANCED", GetVerdict(0, 0).Label)
}

func TestVerdictRGB(t *testing.T) {
	r, g, b := GetVerdict(1, 0).RGB()
	assert.Equal(t, []int{0x3b, 0x82, 0xf6}, []int{r, g, b})

	r, g, b = Verdict{Color: "nope"}.RGB()
	assert.Equal(t, []int{0, 0, 0}, []int{r, g, b})
}

func TestTallyLine(t *testing.T) {
	assert.Equal(t, "Jekyll 3 (75%) / Hyde 1 (25%)", TallyLine(3, 1))
	assert.Equal(t, "Jekyll 0 (0%) / Hyde 0 (0%)", TallyLine(0, 0))
}

func TestIndexEscapesContent(t *testing.T) {
	var buf bytes.Buffer
	dilemmas := []story.NovelDilemma{{ID: "x", Novel: "<script>", Character: "A & B", Situation: "S", Prompt: "P?"}}

	require.NoError(t, Index("Jekyll or Hyde", dilemmas).Render(context.Background(), &buf))
	html := buf.String()
	assert.Contains(t, html, "<title>Jekyll or Hyde</title>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "A &amp; B")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `<li data-id="x">`)
	assert.Contains(t, html, "BALANCED")
	assert.Contains(t, html, `data-color="#ef4444"`)
}

func TestIndexAttributeEscaping(t *testing.T) {
	var buf bytes.Buffer
	dilemmas := []story.NovelDilemma{{ID: `"><b>`, Prompt: "P"}}

	require.NoError(t, Index("t", dilemmas).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `data-id="&#34;&gt;&lt;b&gt;"`)
	assert.NotContains(t, buf.String(), "<b>")
}

func TestVerdictLegend(t *testing.T) {
	var labels []string
	for _, v := range VerdictLegend() {
		labels = append(labels, v.Label)
	}
	assert.Equal(t, []string{"JEKYLL", "HYDE", "BALANCED"}, labels)
}
