package pokeapi

// CreaturePayload is the upstream /pokemon/{id} body. Every field may be absent.
type CreaturePayload struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Stats     []statSlot    `json:"stats"`
	Types     []typeSlot    `json:"types"`
	Abilities []abilitySlot `json:"abilities"`
	Moves     []moveSlot    `json:"moves"`
	Sprites   spriteSet     `json:"sprites"`
}

type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type statSlot struct {
	BaseStat int           `json:"base_stat"`
	Stat     namedResource `json:"stat"`
}

type typeSlot struct {
	Slot int           `json:"slot"`
	Type namedResource `json:"type"`
}

type abilitySlot struct {
	Ability  namedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

type moveSlot struct {
	Move namedResource `json:"move"`
}

type spriteSet struct {
	FrontDefault *string `json:"front_default"`
	FrontShiny   *string `json:"front_shiny"`
	BackDefault  *string `json:"back_default"`
	BackShiny    *string `json:"back_shiny"`
	Other        struct {
		OfficialArtwork struct {
			FrontDefault *string `json:"front_default"`
		} `json:"official-artwork"`
	} `json:"other"`
}

type listResponse struct {
	Count   int             `json:"count"`
	Results []namedResource `json:"results"`
}

type typeResponse struct {
	Pokemon []struct {
		Pokemon namedResource `json:"pokemon"`
		Slot    int           `json:"slot"`
	} `json:"pokemon"`
}
