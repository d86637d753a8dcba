// Package hints rewrites upstream failure messages into short, localized
// instructions for the person in front of the camera.
package hints

import (
	"strings"

	"golang.org/x/text/language"
)

const (
	LocaleDE = "de"
	LocaleEN = "en"
)

var matcher = language.NewMatcher([]language.Tag{language.German, language.English})

// MatchLocale maps a BCP 47 tag or Accept-Language value to a supported
// locale. It returns "" when nothing matches.
func MatchLocale(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	if idx == 0 {
		return LocaleDE
	}
	return LocaleEN
}

type rule struct {
	markers  []string
	messages map[string]string
}

var rules = []rule{
	{
		markers: []string{"safety", "rejected", "moderation"},
		messages: map[string]string{
			LocaleDE: "Das Bild wurde vom Sicherheitssystem abgelehnt. Bitte versuche es mit einem anderen Foto (z.B. mit mehr Abstand oder anderen Lichtverhältnissen).",
			LocaleEN: "The image was rejected by the safety system. Please try another photo (for example with more distance or different lighting).",
		},
	},
	{
		markers: []string{"verified", "organization"},
		messages: map[string]string{
			LocaleDE: "Dein OpenAI-Konto muss verifiziert werden. Gehe zu platform.openai.com und verifiziere deine Organisation.",
			LocaleEN: "Your OpenAI account must be verified. Go to platform.openai.com and verify your organization.",
		},
	},
	{
		markers: []string{"timed out", "timeout", "deadline exceeded"},
		messages: map[string]string{
			LocaleDE: "Die Bildgenerierung hat zu lange gedauert. Bitte versuche es noch einmal.",
			LocaleEN: "Generating the image took too long. Please try again.",
		},
	},
}

// For returns the hint for message in locale, or "" when no rule matches.
// Unknown locales use German.
func For(message, locale string) string {
	lower := strings.ToLower(message)
	if lower == "" {
		return ""
	}
	if locale != LocaleEN {
		locale = LocaleDE
	}
	for _, r := range rules {
		for _, m := range r.markers {
			if strings.Contains(lower, m) {
				return r.messages[locale]
			}
		}
	}
	return ""
}

// Rewrite returns the hint for message when one exists, else message itself.
func Rewrite(message, locale string) string {
	if h := For(message, locale); h != "" {
		return h
	}
	return message
}
