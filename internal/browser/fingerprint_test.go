package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

func TestGenerateProfileDesktopGeometry(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := GenerateProfile(schemas.DeviceDesktop)

		require.Equal(t, schemas.DeviceDesktop, p.Class)
		assert.GreaterOrEqual(t, p.Sizes.Width, int64(desktopMinWidth))
		assert.LessOrEqual(t, p.Sizes.Width, int64(desktopMaxWidth))
		assert.GreaterOrEqual(t, p.Sizes.Height, int64(desktopMinHeight))
		assert.LessOrEqual(t, p.Sizes.Height, int64(desktopMaxHeight))
		// Aspect cap: height never exceeds 80% of the width.
		assert.LessOrEqual(t, float64(p.Sizes.Height), float64(p.Sizes.Width)*0.8)
		assert.NotEmpty(t, p.UserAgent)
	}
}

func TestGenerateProfileMobileGeometry(t *testing.T) {
	for i := 0; i < 200; i++ {
		p := GenerateProfile(schemas.DeviceMobile)

		require.Equal(t, schemas.DeviceMobile, p.Class)
		assert.GreaterOrEqual(t, p.Sizes.Height, int64(mobileMinHeight))
		assert.LessOrEqual(t, p.Sizes.Height, int64(mobileMaxHeight))
		assert.GreaterOrEqual(t, p.Sizes.Width, int64(mobileMinWidth))
		assert.LessOrEqual(t, p.Sizes.Width, int64(mobileMaxWidth))
		assert.LessOrEqual(t, float64(p.Sizes.Width), float64(p.Sizes.Height)*0.7)
		assert.Contains(t, p.UserAgent, "Android")
	}
}

func TestNewFingerprintPinsStoredUserAgent(t *testing.T) {
	profile := &schemas.DeviceProfile{
		Class:     schemas.DeviceDesktop,
		Sizes:     schemas.ViewportSize{Width: 1600, Height: 900},
		UserAgent: desktopTemplates[1].userAgent,
	}

	fp := NewFingerprint(profile)
	assert.Equal(t, desktopTemplates[1].userAgent, fp.UserAgent)
	assert.Equal(t, desktopTemplates[1].navPlatform, fp.Platform)
	assert.Equal(t, desktopTemplates[1].hintsPlatform, fp.Metadata.Platform)
}

func TestNewFingerprintBackfillsMissingUserAgent(t *testing.T) {
	profile := &schemas.DeviceProfile{
		Class: schemas.DeviceMobile,
		Sizes: schemas.ViewportSize{Width: 414, Height: 896},
	}

	fp := NewFingerprint(profile)
	require.NotEmpty(t, profile.UserAgent)
	assert.Equal(t, profile.UserAgent, fp.UserAgent)
	assert.True(t, fp.Metadata.Mobile)
	assert.NotEmpty(t, fp.Metadata.Model)
}

func TestNewFingerprintMetadataMatchesUA(t *testing.T) {
	for _, tpl := range desktopTemplates {
		profile := &schemas.DeviceProfile{
			Class:     schemas.DeviceDesktop,
			Sizes:     schemas.ViewportSize{Width: 1280, Height: 800},
			UserAgent: tpl.userAgent,
		}
		fp := NewFingerprint(profile)

		require.Len(t, fp.Metadata.Brands, 3)
		major := strings.SplitN(tpl.version, ".", 2)[0]
		assert.Equal(t, major, fp.Metadata.Brands[0].Version)
		assert.Contains(t, tpl.userAgent, "Edg/"+tpl.version)
		assert.Equal(t, tpl.version, fp.Metadata.FullVersionList[0].Version)
		assert.False(t, fp.Metadata.Mobile)
		assert.Positive(t, fp.HardwareConcurrency)
		assert.NotEmpty(t, fp.WebGLVendor)
	}
}
