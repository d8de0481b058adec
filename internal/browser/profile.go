package browser

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

// profileFileName is the per-account device identity file, stored next to the
// Chrome user-data directory so identity and cookies travel together.
const profileFileName = "config.json"

// profileFile is the on-disk layout: one device profile per emulation surface.
type profileFile struct {
	Desktop *schemas.DeviceProfile `json:"desktop,omitempty"`
	Mobile  *schemas.DeviceProfile `json:"mobile,omitempty"`
}

// SessionDir returns the per-account directory under sessionsDir.
func SessionDir(sessionsDir, username string) string {
	return filepath.Join(sessionsDir, username)
}

// LoadOrCreateProfile returns the persisted device profile for the account
// and class, generating and saving one on first use. Any I/O or decode
// failure is returned as an error: running with a half-read identity would
// silently change the account's fingerprint.
func LoadOrCreateProfile(logger *zap.Logger, sessionsDir, username string, class schemas.DeviceClass) (*schemas.DeviceProfile, error) {
	dir := SessionDir(sessionsDir, username)
	path := filepath.Join(dir, profileFileName)

	file, err := readProfileFile(path)
	if err != nil {
		return nil, err
	}

	existing := file.Desktop
	if class == schemas.DeviceMobile {
		existing = file.Mobile
	}
	if existing != nil {
		existing.Class = class
		return existing, nil
	}

	profile := GenerateProfile(class)
	logger.Info("Generated new device profile",
		zap.String("account", username),
		zap.String("class", string(class)),
		zap.Int64("width", profile.Sizes.Width),
		zap.Int64("height", profile.Sizes.Height),
	)

	if class == schemas.DeviceMobile {
		file.Mobile = profile
	} else {
		file.Desktop = profile
	}
	if err := writeProfileFile(dir, path, file); err != nil {
		return nil, err
	}
	return profile, nil
}

func readProfileFile(path string) (*profileFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &profileFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading device profile %s: %w", path, err)
	}

	var file profileFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decoding device profile %s: %w", path, err)
	}
	return &file, nil
}

func writeProfileFile(dir, path string, file *profileFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory %s: %w", dir, err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding device profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing device profile %s: %w", path, err)
	}
	return nil
}
