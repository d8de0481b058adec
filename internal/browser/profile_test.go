package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

func TestLoadOrCreateProfilePersistsFirstUse(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	created, err := LoadOrCreateProfile(logger, dir, "alice@example.com", schemas.DeviceDesktop)
	require.NoError(t, err)
	require.NotNil(t, created)

	// A second load must return the identical geometry and UA.
	loaded, err := LoadOrCreateProfile(logger, dir, "alice@example.com", schemas.DeviceDesktop)
	require.NoError(t, err)
	assert.Equal(t, created.Sizes, loaded.Sizes)
	assert.Equal(t, created.UserAgent, loaded.UserAgent)
}

func TestLoadOrCreateProfileKeepsClassesSeparate(t *testing.T) {
	dir := t.TempDir()
	logger := zaptest.NewLogger(t)

	desktop, err := LoadOrCreateProfile(logger, dir, "bob", schemas.DeviceDesktop)
	require.NoError(t, err)
	mobile, err := LoadOrCreateProfile(logger, dir, "bob", schemas.DeviceMobile)
	require.NoError(t, err)

	assert.Equal(t, schemas.DeviceDesktop, desktop.Class)
	assert.Equal(t, schemas.DeviceMobile, mobile.Class)

	// Both live in the same per-account file.
	data, err := os.ReadFile(filepath.Join(dir, "bob", profileFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"desktop"`)
	assert.Contains(t, string(data), `"mobile"`)

	// Re-reading the desktop profile after the mobile write keeps it intact.
	again, err := LoadOrCreateProfile(logger, dir, "bob", schemas.DeviceDesktop)
	require.NoError(t, err)
	assert.Equal(t, desktop.Sizes, again.Sizes)
}

func TestLoadOrCreateProfileRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	accountDir := filepath.Join(dir, "carol")
	require.NoError(t, os.MkdirAll(accountDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(accountDir, profileFileName), []byte("{not json"), 0o644))

	_, err := LoadOrCreateProfile(zaptest.NewLogger(t), dir, "carol", schemas.DeviceDesktop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding device profile")
}
