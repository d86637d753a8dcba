package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"karlselfie/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Source names where a key was found.
type Source string

const (
	SourceEnv  Source = "env"
	SourceFile Source = "file"
)

// Options configures a Store. Getenv defaults to os.Getenv.
type Options struct {
	Provider string
	KeyFile  string
	Getenv   func(string) string
}

// Store resolves the API key for one provider from the environment, then
// from a plain text key file.
type Store struct {
	provider string
	envVar   string
	prefix   string
	keyFile  string
	getenv   func(string) string
}

func NewStore(opts Options) *Store {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderOpenAI
	}
	keyFile := strings.TrimSpace(opts.KeyFile)
	if keyFile == "" {
		keyFile = "key.txt"
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	s := &Store{provider: provider, keyFile: keyFile, getenv: getenv}
	switch provider {
	case ProviderGemini:
		s.envVar, s.prefix = "GEMINI_API_KEY", "AIza"
	default:
		s.envVar, s.prefix = "OPENAI_API_KEY", "sk-"
	}
	return s
}

// EnvVar is the environment variable consulted first.
func (s *Store) EnvVar() string { return s.envVar }

// KeyFile is the fallback file path.
func (s *Store) KeyFile() string { return s.keyFile }

// APIKey returns the key or domain.ErrMissingCredential.
func (s *Store) APIKey(ctx context.Context) (string, error) {
	key, _, err := s.Resolve(ctx)
	return key, err
}

// Resolve returns the key together with where it came from.
func (s *Store) Resolve(ctx context.Context) (string, Source, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if key := strings.TrimSpace(s.getenv(s.envVar)); key != "" {
		return key, SourceEnv, nil
	}
	data, err := os.ReadFile(s.keyFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", s.missing()
		}
		return "", "", fmt.Errorf("%w: read %s: %v", domain.ErrMissingCredential, s.keyFile, err)
	}
	key := PickKey(string(data), s.prefix)
	if key == "" {
		return "", "", s.missing()
	}
	return key, SourceFile, nil
}

func (s *Store) missing() error {
	return fmt.Errorf("%w (%s or %s)", domain.ErrMissingCredential, s.envVar, s.keyFile)
}

// PickKey selects the key from key file contents: the first line starting
// with prefix, else the second non-blank line, else the first.
func PickKey(content, prefix string) string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if prefix != "" && strings.HasPrefix(line, prefix) {
			return line
		}
		lines = append(lines, line)
	}
	switch {
	case len(lines) >= 2:
		return lines[1]
	case len(lines) == 1:
		return lines[0]
	}
	return ""
}

// Mask shortens a key for display.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
