package schemas

// -- Account & Identity Models --
// These types represent the externally supplied account identities the
// automation runs on behalf of. They are immutable for the duration of a run.

// Account holds the credentials and per-account options for one identity.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// TOTP is the base32 one-time-password secret, empty if 2FA is disabled.
	TOTP string `json:"totp,omitempty"`
	// Proxy overrides the global proxy for this account only.
	Proxy string `json:"proxy,omitempty"`
	// Language/Geolocation are optional per-account locale defaults.
	Language    string `json:"language,omitempty"`
	Geolocation string `json:"geolocation,omitempty"`
}

// -- Device Fingerprint Models --

// DeviceClass distinguishes the two emulation surfaces an account is driven on.
type DeviceClass string

const (
	DeviceDesktop DeviceClass = "desktop"
	DeviceMobile  DeviceClass = "mobile"
)

// Screen chrome allowances added to the viewport to derive the reported
// screen geometry. They must stay fixed so a stored profile keeps producing
// the same self-consistent window metrics on every run.
const (
	DesktopChromeWidth  = 55
	DesktopChromeHeight = 151
	MobileChromeHeight  = 146
)

// ViewportSize is the persisted viewport geometry of a device profile.
type ViewportSize struct {
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

// DeviceProfile is the durable browser identity for one account. It is
// created once, persisted next to the account's browser profile directory,
// and reused verbatim on every later run.
type DeviceProfile struct {
	Class     DeviceClass  `json:"device_class"`
	Sizes     ViewportSize `json:"sizes"`
	UserAgent string       `json:"user_agent,omitempty"`
}

// ScreenWidth derives the emulated screen width from the viewport.
func (p *DeviceProfile) ScreenWidth() int64 {
	if p.Class == DeviceMobile {
		return p.Sizes.Width
	}
	return p.Sizes.Width + DesktopChromeWidth
}

// ScreenHeight derives the emulated screen height from the viewport.
func (p *DeviceProfile) ScreenHeight() int64 {
	if p.Class == DeviceMobile {
		return p.Sizes.Height + MobileChromeHeight
	}
	return p.Sizes.Height + DesktopChromeHeight
}

// Brand is one entry of the client hints brand list.
type Brand struct {
	Brand   string `json:"brand"`
	Version string `json:"version"`
}

// UserAgentMetadata mirrors the structured client hints payload sent with
// Emulation.setUserAgentOverride. Leaving it empty while overriding the UA
// string is itself a detection signal, so the generator always fills it.
type UserAgentMetadata struct {
	Brands          []Brand `json:"brands"`
	FullVersionList []Brand `json:"fullVersionList"`
	Platform        string  `json:"platform"`
	PlatformVersion string  `json:"platformVersion"`
	Architecture    string  `json:"architecture"`
	Bitness         string  `json:"bitness"`
	Model           string  `json:"model"`
	Mobile          bool    `json:"mobile"`
}

// Fingerprint bundles everything the session manager injects into a tab.
type Fingerprint struct {
	Profile   *DeviceProfile
	UserAgent string
	Metadata  UserAgentMetadata
	// Platform is the navigator.platform value matching the UA.
	Platform string
	// Evasion knobs normalized by the stealth payload.
	HardwareConcurrency int64
	DeviceMemory        int64
	WebGLVendor         string
	WebGLRenderer       string
}
