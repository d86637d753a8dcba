package credentials

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"karlselfie/internal/domain"
)

func envFunc(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func writeKeyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	return path
}

func TestAPIKeyFromEnv(t *testing.T) {
	store := NewStore(Options{
		KeyFile: writeKeyFile(t, "sk-from-file\n"),
		Getenv:  envFunc(map[string]string{"OPENAI_API_KEY": " sk-env "}),
	})
	key, src, err := store.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if key != "sk-env" || src != SourceEnv {
		t.Fatalf("expected sk-env from env, got %q from %s", key, src)
	}
}

func TestAPIKeyFromFile(t *testing.T) {
	store := NewStore(Options{
		KeyFile: writeKeyFile(t, "# project key\nsk-abc\n"),
		Getenv:  envFunc(nil),
	})
	key, src, err := store.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if key != "sk-abc" || src != SourceFile {
		t.Fatalf("expected sk-abc from file, got %q from %s", key, src)
	}
}

func TestAPIKeyMissing(t *testing.T) {
	store := NewStore(Options{
		KeyFile: filepath.Join(t.TempDir(), "nope.txt"),
		Getenv:  envFunc(nil),
	})
	if _, err := store.APIKey(context.Background()); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}

	empty := NewStore(Options{KeyFile: writeKeyFile(t, "\n  \n"), Getenv: envFunc(nil)})
	if _, err := empty.APIKey(context.Background()); !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential for blank file, got %v", err)
	}
}

func TestAPIKeyUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Options{KeyFile: dir, Getenv: envFunc(nil)})
	_, err := store.APIKey(context.Background())
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential for a directory key file, got %v", err)
	}
	if kind := domain.KindOf(err); kind != domain.KindConfiguration {
		t.Fatalf("expected configuration kind, got %q", kind)
	}
}

func TestGeminiProvider(t *testing.T) {
	store := NewStore(Options{
		Provider: ProviderGemini,
		KeyFile:  writeKeyFile(t, "sk-openai\nAIzaGemini\n"),
		Getenv:   envFunc(nil),
	})
	if store.EnvVar() != "GEMINI_API_KEY" {
		t.Fatalf("unexpected env var %s", store.EnvVar())
	}
	key, err := store.APIKey(context.Background())
	if err != nil {
		t.Fatalf("APIKey error: %v", err)
	}
	if key != "AIzaGemini" {
		t.Fatalf("expected AIzaGemini, got %q", key)
	}
}

func TestPickKey(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"prefixed line wins", "label\nother\nsk-123\n", "sk-123"},
		{"second non-blank line", "Project X\n\n  secret-value  \nthird\n", "secret-value"},
		{"single line", "only-one\n", "only-one"},
		{"empty", "\n\n", ""},
		{"crlf", "sk-crlf\r\n", "sk-crlf"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PickKey(tc.content, "sk-"); got != tc.want {
				t.Fatalf("PickKey = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMask(t *testing.T) {
	if got := Mask("sk-1234567890"); got != "sk-1*****7890" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := Mask("short"); got != "*****" {
		t.Fatalf("unexpected mask %q", got)
	}
}
