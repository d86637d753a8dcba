package imagegen

import (
	"context"
	"strings"
)

// ImageInput is one input image sent to a provider.
type ImageInput struct {
	Name     string
	MIMEType string
	Data     []byte
}

// EditRequest asks a provider to compose a new image from the inputs.
// Images are sent in order; the character reference comes first.
type EditRequest struct {
	APIKey string
	Prompt string
	Images []ImageInput
}

// EditResult holds the first generated image.
type EditResult struct {
	ImageBase64 string
	MIMEType    string
}

type Editor interface {
	Name() string
	Edit(ctx context.Context, req EditRequest) (*EditResult, error)
}

var rejectionMarkers = []string{"safety", "rejected", "moderation", "verified", "verify", "organization"}

// isRejection reports whether a provider message describes a refusal the user
// has to act on.
func isRejection(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range rejectionMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
