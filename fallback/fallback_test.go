package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jekyll_hyde/extract"
)

func TestAdviceIsValid(t *testing.T) {
	for _, consequences := range []bool{false, true} {
		resp := Advice(consequences)
		assert.NoError(t, extract.ValidateAdvice(resp, consequences), "consequences=%v", consequences)
	}
}

func TestAdviceConsequenceFieldsFollowMode(t *testing.T) {
	off := Advice(false)
	assert.Empty(t, off.Jekyll.ShortTerm)
	assert.Empty(t, off.Hyde.LongTerm)

	on := Advice(true)
	assert.NotEmpty(t, on.Jekyll.ShortTerm)
	assert.NotEmpty(t, on.Hyde.LongTerm)
}

func TestAdviceIsDeterministic(t *testing.T) {
	assert.Equal(t, Advice(true), Advice(true))
}

func TestPersonaIsValid(t *testing.T) {
	assert.NoError(t, extract.ValidatePersona(Persona()))
	assert.Equal(t, Persona(), Persona())
}
