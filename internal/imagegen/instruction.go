package imagegen

import (
	"fmt"
	"strings"

	"karlselfie/internal/domain"
)

const (
	preambleBlock = "Create an ultra-photorealistic image. This is a fun, family-friendly artistic composition."

	referenceBlock = `CRITICAL - Two reference images provided:
- Image 1: Karl, the wooden block character (use as exact reference for Karl's appearance)
- Image 2: The user's selfie (MUST preserve this person's EXACT facial features, face shape, skin tone, hair color, hair style, eye color, and all identifying characteristics)`

	karlBlock = "Karl the wooden character: A recognizable humanoid figure made entirely of stacked natural wooden blocks. Visible wood grain texture on all surfaces. Small metal screw details at joints. Rectangular blocky head with a comically grumpy/unimpressed facial expression carved into the wood. Proportions exactly as shown in reference image 1."

	personBlock = `IMPORTANT - The human person in this image MUST be an EXACT photorealistic likeness of the person in reference image 2 (the selfie). Preserve with 100% accuracy:
- Exact face shape, jawline, and facial structure
- Exact eye color, eye shape, eyebrows
- Exact nose shape and size
- Exact lip shape and skin tone
- Exact hair color, texture, length, and style
- Any distinctive features like freckles, moles, or facial hair
The person should look like a real photograph of this specific individual, not a generic person.`

	scenePrefix = "Scene Description: "

	styleBlock = "Visual Style: Ultra-photorealistic, indistinguishable from a real photograph. Shot on professional cinema camera with 35mm lens. Natural cinematic lighting with soft shadows. Realistic global illumination. Shallow depth of field. 8K resolution quality. The wooden Karl character should look like a real physical wooden sculpture photographed in this scene. The human should look like an actual photograph of a real person."

	constraintsBlock = "Requirements: Family-friendly content. No text, logos, or watermarks. Absolutely NO cartoon or CGI aesthetic - this must look like a real photograph. The human's face must match the selfie reference exactly."
)

// BuildInstruction expands a scene description into the full generation
// prompt. The description is embedded verbatim.
func BuildInstruction(sceneDescription string) (string, error) {
	if strings.TrimSpace(sceneDescription) == "" {
		return "", fmt.Errorf("scene description: %w", domain.ErrInvalidInput)
	}
	parts := []string{
		preambleBlock,
		referenceBlock,
		karlBlock,
		personBlock,
		scenePrefix + sceneDescription,
		styleBlock,
		constraintsBlock,
	}
	return strings.Join(parts, "\n\n"), nil
}
