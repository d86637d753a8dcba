package scenes

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"karlselfie/internal/domain"
)

var numbering = regexp.MustCompile(`^\d+\.\s*`)

const (
	fileSceneEmoji = "🎲"
	titleWords     = 4
)

// ParsePrompts splits a numbered prompts file into scene descriptions.
// Leading "N." numbering and blank lines are dropped.
func ParsePrompts(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		line = strings.TrimSpace(numbering.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// LoadFile builds a catalog from a numbered prompts file. IDs are assigned
// 1..n in file order.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	prompts := ParsePrompts(data)
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompts file %s: %w", path, domain.ErrNotFound)
	}
	list := make([]domain.Scene, 0, len(prompts))
	for i, p := range prompts {
		list = append(list, domain.Scene{
			ID:         i + 1,
			Emoji:      fileSceneEmoji,
			ShortTitle: shortTitle(p),
			FullPrompt: p,
		})
	}
	return New(list)
}

// Open returns the catalog from path, or the built-in catalog when path is
// empty or cannot be used.
func Open(path string, log zerolog.Logger) *Catalog {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	c, err := LoadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("scenes file unusable, using built-in catalog")
		return Default()
	}
	log.Info().Str("path", path).Int("count", c.Len()).Msg("scenes loaded from file")
	return c
}

func shortTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) <= titleWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleWords], " ") + " …"
}
