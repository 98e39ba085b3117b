package story

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	choices := []ChoiceRecord{
		{Dilemma: "a", Picked: Jekyll},
		{Dilemma: "b", Picked: Hyde},
		{Dilemma: "c", Picked: "JEKYLL"},
		{Dilemma: "d", Picked: "nobody"},
	}
	j, h := Tally(choices)
	assert.Equal(t, 2, j)
	assert.Equal(t, 1, h)
}

func TestSideValid(t *testing.T) {
	assert.True(t, Jekyll.Valid())
	assert.True(t, Hyde.Valid())
	assert.False(t, Side("angel").Valid())
}

func TestFindDilemma(t *testing.T) {
	d, ok := FindDilemma("10")
	assert.True(t, ok)
	assert.Equal(t, "Faust", d.Novel)

	_, ok = FindDilemma("missing")
	assert.False(t, ok)
	assert.Len(t, NovelDilemmas, 10)
}
