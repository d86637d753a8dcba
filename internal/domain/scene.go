package domain

// Scene is one entry of the scene catalog.
type Scene struct {
	ID         int    `json:"id"`
	Emoji      string `json:"emoji"`
	ShortTitle string `json:"shortTitle"`
	FullPrompt string `json:"fullPrompt"`
}
