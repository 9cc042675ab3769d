// Package file loads engine settings from a TOML file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/veranda-labs/concierge/internal/core/domain"
)

// DefaultPath is the settings file location relative to the user's home.
const DefaultPath = ".concierge/config.toml"

// LoadSettings reads settings from path, layered over the tuned defaults
// so a partial file only overrides what it names. An empty path means the
// default location; a missing file yields the defaults.
func LoadSettings(path string) (domain.Settings, error) {
	settings := domain.NewDefaultSettings()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return settings, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, DefaultPath)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return settings, fmt.Errorf("reading settings file: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return domain.NewDefaultSettings(), fmt.Errorf("parsing settings file: %w", err)
	}
	return settings, nil
}
