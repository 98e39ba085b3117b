// Package fallback provides the canned payloads served when generation fails,
// so the browser flow keeps working without the model.
package fallback

import "jekyll_hyde/story"

// Advice returns the mock two-sided answer. Consequence fields are filled only
// when consequences is true, matching what a live answer would carry.
func Advice(consequences bool) story.AdviceResponse {
	resp := story.AdviceResponse{
		Jekyll: story.SideAdvice{
			Title:  "Choose the Honest Path",
			Advice: "Weigh who is affected beyond yourself. Act in a way you could explain openly tomorrow. Kindness now saves regret later.",
		},
		Hyde: story.SideAdvice{
			Title:  "Protect Your Own Interests",
			Advice: "Look after yourself first. Nobody else will guard your position. Take the option that leaves you ahead.",
		},
	}
	if consequences {
		resp.Jekyll.ShortTerm = "An uncomfortable moment and some friction with people close to you."
		resp.Jekyll.LongTerm = "A reputation for integrity and relationships built on trust."
		resp.Hyde.ShortTerm = "Immediate relief and an advantage over others."
		resp.Hyde.LongTerm = "Growing suspicion from others and a harder conscience to live with."
	}
	return resp
}

// Persona returns the mock profile.
func Persona() story.PersonaAnalysis {
	return story.PersonaAnalysis{
		PersonaName:        "The Divided Self",
		PersonaDescription: "You move between principle and self-preservation depending on what is at stake. Neither side has fully won you over.",
		DominantTrait:      "Pragmatic conscience",
		ShadowTrait:        "Quiet self-interest",
		LiteraryParallel:   "Dr. Henry Jekyll, Strange Case of Dr Jekyll and Mr Hyde",
		Insight:            "Your choices show a person negotiating with themselves rather than following a fixed rule. That tension is normal. Notice which situations tip you toward impulse. Naming them is the first step to choosing on purpose.",
	}
}
