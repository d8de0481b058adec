package browser

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

// Viewport bounds per device class. Heights are additionally capped relative
// to the width (desktop) or the width relative to the height (mobile) so the
// generated window keeps a plausible aspect ratio.
const (
	desktopMinWidth  = 1024
	desktopMaxWidth  = 2560
	desktopMinHeight = 768
	desktopMaxHeight = 1440

	mobileMinHeight = 568
	mobileMaxHeight = 1024
	mobileMinWidth  = 320
	mobileMaxWidth  = 576
)

// uaTemplate is one believable browser identity. The Chrome/Edge version pair
// feeds both the UA string and the client hints brand lists.
type uaTemplate struct {
	userAgent       string
	navPlatform     string
	hintsPlatform   string
	platformVersion string
	architecture    string
	bitness         string
	model           string
	mobile          bool
	version         string
}

var desktopTemplates = []uaTemplate{
	{
		userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.2903.86",
		navPlatform:     "Win32",
		hintsPlatform:   "Windows",
		platformVersion: "15.0.0",
		architecture:    "x86",
		bitness:         "64",
		version:         "131.0.2903.86",
	},
	{
		userAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36 Edg/130.0.2849.80",
		navPlatform:     "Win32",
		hintsPlatform:   "Windows",
		platformVersion: "10.0.0",
		architecture:    "x86",
		bitness:         "64",
		version:         "130.0.2849.80",
	},
	{
		userAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.2903.70",
		navPlatform:     "MacIntel",
		hintsPlatform:   "macOS",
		platformVersion: "14.6.1",
		architecture:    "arm",
		bitness:         "64",
		version:         "131.0.2903.70",
	},
}

var mobileTemplates = []uaTemplate{
	{
		userAgent:       "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36 EdgA/131.0.2903.63",
		navPlatform:     "Linux armv8l",
		hintsPlatform:   "Android",
		platformVersion: "14.0.0",
		architecture:    "",
		bitness:         "",
		model:           "Pixel 8",
		mobile:          true,
		version:         "131.0.2903.63",
	},
	{
		userAgent:       "Mozilla/5.0 (Linux; Android 13; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Mobile Safari/537.36 EdgA/130.0.2849.68",
		navPlatform:     "Linux armv8l",
		hintsPlatform:   "Android",
		platformVersion: "13.0.0",
		architecture:    "",
		bitness:         "",
		model:           "SM-S918B",
		mobile:          true,
		version:         "130.0.2849.68",
	},
}

var webGLIdentities = []struct {
	vendor   string
	renderer string
}{
	{"Google Inc. (NVIDIA)", "ANGLE (NVIDIA, NVIDIA GeForce RTX 3060 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) UHD Graphics 770 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (Intel)", "ANGLE (Intel, Intel(R) Iris(R) Xe Graphics Direct3D11 vs_5_0 ps_5_0, D3D11)"},
	{"Google Inc. (AMD)", "ANGLE (AMD, AMD Radeon RX 7600 Direct3D11 vs_5_0 ps_5_0, D3D11)"},
}

var mobileWebGLIdentities = []struct {
	vendor   string
	renderer string
}{
	{"Qualcomm", "Adreno (TM) 740"},
	{"ARM", "Mali-G715-Immortalis MC11"},
}

// GenerateProfile creates a fresh device profile with randomized but
// self-consistent geometry and a pinned user agent. The result is meant to be
// persisted once and reused verbatim on every later run.
func GenerateProfile(class schemas.DeviceClass) *schemas.DeviceProfile {
	p := &schemas.DeviceProfile{Class: class}

	if class == schemas.DeviceMobile {
		h := randRange(mobileMinHeight, mobileMaxHeight)
		wCap := min64(mobileMaxWidth, int64(float64(h)*0.7))
		p.Sizes = schemas.ViewportSize{
			Width:  randRange(mobileMinWidth, wCap),
			Height: h,
		}
		p.UserAgent = mobileTemplates[rand.Intn(len(mobileTemplates))].userAgent
		return p
	}

	w := randRange(desktopMinWidth, desktopMaxWidth)
	hCap := min64(desktopMaxHeight, int64(float64(w)*0.8))
	p.Sizes = schemas.ViewportSize{
		Width:  w,
		Height: randRange(desktopMinHeight, hCap),
	}
	p.UserAgent = desktopTemplates[rand.Intn(len(desktopTemplates))].userAgent
	return p
}

// NewFingerprint expands a stored profile into the full set of values the
// session manager injects. The UA string drives everything else so a profile
// saved on one run produces identical client hints on the next.
func NewFingerprint(profile *schemas.DeviceProfile) schemas.Fingerprint {
	tpl := templateForUA(profile)

	fp := schemas.Fingerprint{
		Profile:   profile,
		UserAgent: tpl.userAgent,
		Platform:  tpl.navPlatform,
		Metadata:  buildMetadata(tpl),
	}

	if profile.Class == schemas.DeviceMobile {
		fp.HardwareConcurrency = 8
		fp.DeviceMemory = 8
		gl := mobileWebGLIdentities[rand.Intn(len(mobileWebGLIdentities))]
		fp.WebGLVendor, fp.WebGLRenderer = gl.vendor, gl.renderer
	} else {
		fp.HardwareConcurrency = []int64{8, 12, 16}[rand.Intn(3)]
		fp.DeviceMemory = 8
		gl := webGLIdentities[rand.Intn(len(webGLIdentities))]
		fp.WebGLVendor, fp.WebGLRenderer = gl.vendor, gl.renderer
	}

	return fp
}

// templateForUA finds the identity template matching the stored UA so
// reloaded profiles keep their original client hints. Profiles saved before
// the UA pin existed fall back to a fresh template for their class.
func templateForUA(profile *schemas.DeviceProfile) uaTemplate {
	pool := desktopTemplates
	if profile.Class == schemas.DeviceMobile {
		pool = mobileTemplates
	}
	for _, tpl := range pool {
		if tpl.userAgent == profile.UserAgent {
			return tpl
		}
	}
	tpl := pool[rand.Intn(len(pool))]
	profile.UserAgent = tpl.userAgent
	return tpl
}

func buildMetadata(tpl uaTemplate) schemas.UserAgentMetadata {
	major := strings.SplitN(tpl.version, ".", 2)[0]

	brand := "Microsoft Edge"
	return schemas.UserAgentMetadata{
		Brands: []schemas.Brand{
			{Brand: brand, Version: major},
			{Brand: "Chromium", Version: major},
			{Brand: "Not_A Brand", Version: "24"},
		},
		FullVersionList: []schemas.Brand{
			{Brand: brand, Version: tpl.version},
			{Brand: "Chromium", Version: chromiumFullVersion(major)},
			{Brand: "Not_A Brand", Version: "24.0.0.0"},
		},
		Platform:        tpl.hintsPlatform,
		PlatformVersion: tpl.platformVersion,
		Architecture:    tpl.architecture,
		Bitness:         tpl.bitness,
		Model:           tpl.model,
		Mobile:          tpl.mobile,
	}
}

func chromiumFullVersion(major string) string {
	return fmt.Sprintf("%s.0.0.0", major)
}

func randRange(lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + rand.Int63n(hi-lo+1)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
