package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDeepgramAPIKey   = "DEEPGRAM_API_KEY"
	EnvElevenLabsAPIKey = "ELEVENLABS_API_KEY"
)

// Secrets are API credentials. They never live in the config file.
type Secrets struct {
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	// Files lists the .env files that were loaded.
	Files []string
}

// EnvFiles returns the .env candidates for a config path: one beside the
// config file, then one in the working directory.
func EnvFiles(configPath string) []string {
	files := []string{}
	if strings.TrimSpace(configPath) != "" {
		files = append(files, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	return append(files, ".env")
}

// LoadSecrets loads the given .env files into the process environment and
// reads the API keys. Variables already set in the environment win.
func LoadSecrets(envFiles ...string) (Secrets, []Warning) {
	var (
		secrets  Secrets
		warnings []Warning
	)

	seen := map[string]struct{}{}
	for _, path := range envFiles {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		if _, err := os.Stat(path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("stat %s: %v", path, err)})
			}
			continue
		}
		if err := godotenv.Load(path); err != nil {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("load %s: %v", path, err)})
			continue
		}
		secrets.Files = append(secrets.Files, path)
	}

	secrets.DeepgramAPIKey = strings.TrimSpace(os.Getenv(EnvDeepgramAPIKey))
	secrets.ElevenLabsAPIKey = strings.TrimSpace(os.Getenv(EnvElevenLabsAPIKey))
	return secrets, warnings
}
