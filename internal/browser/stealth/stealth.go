// Package stealth masks the automation signals headless Chrome leaks,
// combining CDP-level emulation overrides with a script injected before any
// page JavaScript runs.
package stealth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

//go:embed evasions.js
var evasionsJS string

// BuildScript fills the evasion script's placeholders from the fingerprint.
func BuildScript(fp schemas.Fingerprint) string {
	r := strings.NewReplacer(
		"{{WEBGL_VENDOR}}", fp.WebGLVendor,
		"{{WEBGL_RENDERER}}", fp.WebGLRenderer,
		"{{DEVICE_MEMORY}}", fmt.Sprintf("%d", fp.DeviceMemory),
	)
	return r.Replace(evasionsJS)
}

// Apply returns the actions that turn a fresh tab into the fingerprinted
// identity. It must run against every tab before that tab navigates
// anywhere, including tabs the page opens itself.
func Apply(fp schemas.Fingerprint, acceptLanguage string) chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(BuildScript(fp)).Do(ctx)
			return err
		}),
		chromedp.ActionFunc(applyOverrides(fp, acceptLanguage)),
	}
}

// applyOverrides covers the signals JS injection cannot reach.
func applyOverrides(fp schemas.Fingerprint, acceptLanguage string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := emulation.SetAutomationOverride(false).Do(ctx); err != nil {
			return fmt.Errorf("clearing automation flag: %w", err)
		}

		// Headless windows are never focused; document.hasFocus() must
		// still report true or visibility-gated scripts stall.
		if err := emulation.SetFocusEmulationEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enabling focus emulation: %w", err)
		}

		if err := emulation.SetHardwareConcurrencyOverride(fp.HardwareConcurrency).Do(ctx); err != nil {
			return fmt.Errorf("overriding hardware concurrency: %w", err)
		}

		if err := deviceMetrics(fp).Do(ctx); err != nil {
			return fmt.Errorf("overriding device metrics: %w", err)
		}

		mobile := fp.Profile.Class == schemas.DeviceMobile
		touch := emulation.SetTouchEmulationEnabled(mobile)
		if mobile {
			touch = touch.WithMaxTouchPoints(5)
		}
		if err := touch.Do(ctx); err != nil {
			return fmt.Errorf("configuring touch emulation: %w", err)
		}

		if err := userAgentOverride(fp, acceptLanguage).Do(ctx); err != nil {
			return fmt.Errorf("overriding user agent: %w", err)
		}
		return nil
	}
}

// deviceMetrics emulates the profile's viewport and reports a screen sized
// viewport-plus-chrome, matching what a real window of that size would show.
func deviceMetrics(fp schemas.Fingerprint) *emulation.SetDeviceMetricsOverrideParams {
	p := fp.Profile
	mobile := p.Class == schemas.DeviceMobile

	scale := 1.0
	if mobile {
		scale = 3.0
	}

	return emulation.SetDeviceMetricsOverride(p.Sizes.Width, p.Sizes.Height, scale, mobile).
		WithScreenWidth(p.ScreenWidth()).
		WithScreenHeight(p.ScreenHeight())
}

// userAgentOverride sets the UA string together with its client hints
// metadata. Overriding the string alone leaves navigator.userAgentData
// reporting HeadlessChrome, which defeats the override.
func userAgentOverride(fp schemas.Fingerprint, acceptLanguage string) *emulation.SetUserAgentOverrideParams {
	ua := emulation.SetUserAgentOverride(fp.UserAgent)
	ua.Platform = fp.Platform
	if acceptLanguage != "" {
		ua.AcceptLanguage = acceptLanguage
	}

	md := fp.Metadata
	ua.UserAgentMetadata = &emulation.UserAgentMetadata{
		Brands:          brandList(md.Brands),
		FullVersionList: brandList(md.FullVersionList),
		Platform:        md.Platform,
		PlatformVersion: md.PlatformVersion,
		Architecture:    md.Architecture,
		Bitness:         md.Bitness,
		Model:           md.Model,
		Mobile:          md.Mobile,
	}
	return ua
}

func brandList(brands []schemas.Brand) []*emulation.UserAgentBrandVersion {
	out := make([]*emulation.UserAgentBrandVersion, len(brands))
	for i, b := range brands {
		out[i] = &emulation.UserAgentBrandVersion{Brand: b.Brand, Version: b.Version}
	}
	return out
}
