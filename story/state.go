package story

import "strings"

// Mode selects which pipeline a generate request runs.
type Mode string

const (
	ModeAdvice Mode = "advice"
	ModeFinal  Mode = "final"
)

// Side is one of the two advisory personas.
type Side string

const (
	Jekyll Side = "jekyll"
	Hyde   Side = "hyde"
)

// Valid reports whether s names a known side.
func (s Side) Valid() bool {
	return s == Jekyll || s == Hyde
}

// ChoiceRecord is one pick the user made, in the order it was made.
type ChoiceRecord struct {
	Dilemma string `json:"dilemma"`
	Picked  Side   `json:"picked"`
	Novel   string `json:"novel,omitempty"`
}

// SideAdvice is the advice one persona gives.
// ShortTerm and LongTerm are only filled when consequences mode is on.
type SideAdvice struct {
	Title     string `json:"title"`
	Advice    string `json:"advice"`
	ShortTerm string `json:"short_term,omitempty"`
	LongTerm  string `json:"long_term,omitempty"`
}

// AdviceResponse holds both sides' answers to a single dilemma.
type AdviceResponse struct {
	Jekyll SideAdvice `json:"jekyll"`
	Hyde   SideAdvice `json:"hyde"`
}

// PersonaAnalysis is the final psychological profile.
type PersonaAnalysis struct {
	PersonaName        string `json:"persona_name"`
	PersonaDescription string `json:"persona_description"`
	DominantTrait      string `json:"dominant_trait"`
	ShadowTrait        string `json:"shadow_trait"`
	LiteraryParallel   string `json:"literary_parallel"`
	Insight            string `json:"insight"`
}

// Tally counts picks per side.
func Tally(choices []ChoiceRecord) (jekyll, hyde int) {
	for _, c := range choices {
		switch Side(strings.ToLower(string(c.Picked))) {
		case Jekyll:
			jekyll++
		case Hyde:
			hyde++
		}
	}
	return jekyll, hyde
}
