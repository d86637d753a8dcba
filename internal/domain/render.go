package domain

// RenderResult is the payload returned for a successful render.
type RenderResult struct {
	ImageBase64 string `json:"imageBase64"`
	PromptUsed  string `json:"promptUsed"`
	FullPrompt  string `json:"fullPrompt"`
	MIMEType    string `json:"mimeType,omitempty"`
}

// RenderError is the JSON body written for failed renders.
type RenderError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}
