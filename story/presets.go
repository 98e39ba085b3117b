package story

// NovelDilemma is a preset dilemma drawn from a literary work.
type NovelDilemma struct {
	ID        string `json:"id"`
	Novel     string `json:"novel"`
	Character string `json:"character"`
	Situation string `json:"situation"`
	Prompt    string `json:"prompt"`
}

// NovelDilemmas are the presets offered on the input screen.
var NovelDilemmas = []NovelDilemma{
	{
		ID:        "1",
		Novel:     "Les Misérables",
		Character: "Jean Valjean",
		Situation: "A Loaf of Bread",
		Prompt:    "You can steal a loaf of bread to feed your starving nephew. Getting caught means prison, but walking away means he goes hungry tonight. What do you do?",
	},
	{
		ID:        "2",
		Novel:     "Crime & Punishment",
		Character: "Raskolnikov",
		Situation: "The Pawnbroker's Wealth",
		Prompt:    "You could eliminate a ruthless moneylender who built her fortune through exploitation, and use her wealth to save countless poor souls. Is sacrificing one evil person to save many ever justified?",
	},
	{
		ID:        "3",
		Novel:     "To Kill a Mockingbird",
		Character: "Atticus Finch",
		Situation: "An Uncomfortable Truth",
		Prompt:    "An innocent person is about to be wrongfully convicted. Speaking the truth will turn the entire community against you and endanger your family. Do you stay silent, or do you stand up?",
	},
	{
		ID:        "4",
		Novel:     "The Lord of the Rings",
		Character: "Frodo",
		Situation: "The Temptation of the Ring",
		Prompt:    "Putting on the Ring could save you from immediate danger right now. But using its power even once may doom the entire quest to destroy it. Do you save yourself, or protect the mission?",
	},
	{
		ID:        "5",
		Novel:     "The Great Gatsby",
		Character: "Nick Carraway",
		Situation: "A Friend's Secret",
		Prompt:    "Your friend hit someone with their car and fled the scene. They beg you to stay silent. Speaking up destroys them, but silence lets an innocent person take the blame. What do you choose?",
	},
	{
		ID:        "6",
		Novel:     "1984",
		Character: "Winston Smith",
		Situation: "Resistance in the Dark",
		Prompt:    "You are keeping a secret diary as an act of defiance against the regime. Discovery means torture and death. But stopping means surrendering the last shred of your humanity. Do you keep writing?",
	},
	{
		ID:        "7",
		Novel:     "Pride & Prejudice",
		Character: "Elizabeth Bennet",
		Situation: "A Convenient Match",
		Prompt:    "A wealthy suitor you don't love could lift your entire family out of poverty. Do you sacrifice your own happiness to save them, or refuse and follow your heart?",
	},
	{
		ID:        "8",
		Novel:     "The Metamorphosis",
		Character: "Gregor Samsa",
		Situation: "A Burden to Bear",
		Prompt:    "You know you have become a financial and emotional burden on your family. Perhaps disappearing would be the greatest gift you could give them. Is erasing yourself an act of love?",
	},
	{
		ID:        "9",
		Novel:     "Adventures of Huckleberry Finn",
		Character: "Huck Finn",
		Situation: "The Runaway Slave",
		Prompt:    "Jim, an escaped slave, is your truest friend. The law demands you turn him in, but doing so sends him back to chains. Do you follow the law, or follow your conscience?",
	},
	{
		ID:        "10",
		Novel:     "Faust",
		Character: "Faust",
		Situation: "The Devil's Bargain",
		Prompt:    "The Devil offers you all knowledge and pleasure in exchange for your immortal soul. You only live once. Can you sell something eternal for the chance to experience everything?",
	},
}

// FindDilemma returns the preset with the given id.
func FindDilemma(id string) (NovelDilemma, bool) {
	for _, d := range NovelDilemmas {
		if d.ID == id {
			return d, true
		}
	}
	return NovelDilemma{}, false
}
