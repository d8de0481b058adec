// Package browser owns the lifecycle of the automated Chrome instance: one
// Session per account and device class, carrying a persisted fingerprint and
// implementing the page driving surface the rest of the tool runs on.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/browser/stealth"
	"github.com/xkilldash9x/rewards-cli/internal/config"
	"github.com/xkilldash9x/rewards-cli/internal/humanoid"
)

// dismissSelectors are the known overlay, consent and onboarding buttons.
// They are clicked opportunistically; absence is the normal case.
var dismissSelectors = []string{
	"#iLandingViewAction",
	"#iShowSkip",
	"#iNext",
	"#iLooksGood",
	"#idSIButton9",
	"#bnp_btn_accept",
	"#acceptButton",
	".dashboardPopUpPopUpSelectButton",
}

// Session is one live browser for one account on one device class. It owns
// the Chrome process, the primary tab, and any tabs pages open during a run.
// A Session is not safe for concurrent use.
type Session struct {
	logger *zap.Logger
	cfg    config.BrowserConfig
	fp     schemas.Fingerprint

	allocCtx    context.Context
	allocCancel context.CancelFunc

	primaryCtx    context.Context
	primaryCancel context.CancelFunc
	primaryID     target.ID

	mu     sync.Mutex
	tabs   []*tabHandle
	active context.Context

	typist *humanoid.Typist
}

type tabHandle struct {
	id     target.ID
	ctx    context.Context
	cancel context.CancelFunc
}

var _ schemas.PageDriver = (*Session)(nil)

// NewSession launches Chrome with the account's profile directory and
// fingerprint and returns a driver bound to its primary tab. The session
// must be closed with Close; on error no browser process is left behind.
func NewSession(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig, proxy config.ProxyConfig, account schemas.Account, fp schemas.Fingerprint, loc Locale) (*Session, error) {
	s := &Session{
		logger: logger.Named("browser").With(
			zap.String("account", account.Username),
			zap.String("class", string(fp.Profile.Class)),
		),
		cfg:    cfg,
		fp:     fp,
		typist: humanoid.NewTypist(time.Now().UnixNano()),
	}

	opts := allocatorOptions(cfg, proxy, account, fp, loc)
	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(ctx, opts...)

	s.primaryCtx, s.primaryCancel = chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(s.logger.Sugar().Debugf),
		chromedp.WithErrorf(s.logger.Sugar().Errorf),
	)
	s.active = s.primaryCtx

	// The first Run starts the browser; the fingerprint must land on the
	// primary tab before it navigates anywhere real.
	if err := chromedp.Run(s.primaryCtx, stealth.Apply(fp, acceptLanguage(loc))); err != nil {
		s.primaryCancel()
		s.allocCancel()
		return nil, fmt.Errorf("starting browser session: %w", err)
	}

	if t := chromedp.FromContext(s.primaryCtx).Target; t != nil {
		s.primaryID = t.TargetID
	}

	// Tabs the page opens (urlreward activities do this constantly) must
	// carry the same fingerprint before their first script runs.
	chromedp.ListenBrowser(s.primaryCtx, func(ev interface{}) {
		created, ok := ev.(*target.EventTargetCreated)
		if !ok {
			return
		}
		info := created.TargetInfo
		if info.Type != "page" || info.TargetID == s.primaryID {
			return
		}
		go s.adoptTab(info.TargetID, acceptLanguage(loc))
	})

	s.logger.Info("Browser session started",
		zap.Int64("viewport_width", fp.Profile.Sizes.Width),
		zap.Int64("viewport_height", fp.Profile.Sizes.Height),
		zap.Bool("visible", cfg.Visible),
	)
	return s, nil
}

// WithSession runs fn against a fresh session and closes it on every exit
// path, panics included.
func WithSession(ctx context.Context, logger *zap.Logger, cfg config.BrowserConfig, proxy config.ProxyConfig, account schemas.Account, fp schemas.Fingerprint, loc Locale, fn func(*Session) error) error {
	s, err := NewSession(ctx, logger, cfg, proxy, account, fp, loc)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// allocatorOptions builds the Chrome launch flags for one session.
func allocatorOptions(cfg config.BrowserConfig, proxy config.ProxyConfig, account schemas.Account, fp schemas.Fingerprint, loc Locale) []chromedp.ExecAllocatorOption {
	var headlessVal string
	if !cfg.Visible {
		headlessVal = "new"
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.UserDataDir(SessionDir(cfg.SessionsDir, account.Username)),
		chromedp.WindowSize(int(fp.Profile.Sizes.Width), int(fp.Profile.Sizes.Height)),
		chromedp.UserAgent(fp.UserAgent),
		chromedp.Flag("lang", loc.Language+"-"+loc.Country),

		// New headless mode is far less detectable than legacy.
		chromedp.Flag("headless", headlessVal),

		// Anti-detection flags.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),

		// Stability flags.
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("metrics-recording-only", true),
	}

	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	proxyAddr := account.Proxy
	if proxyAddr == "" && proxy.Enabled {
		proxyAddr = proxy.Address
	}
	if proxyAddr != "" {
		if _, err := url.Parse(proxyAddr); err == nil {
			opts = append(opts, chromedp.ProxyServer(proxyAddr))
		}
	}

	return opts
}

func acceptLanguage(loc Locale) string {
	return fmt.Sprintf("%s-%s,%s;q=0.9", loc.Language, loc.Country, loc.Language)
}

// adoptTab attaches to a newly created page target and applies the
// fingerprint to it.
func (s *Session) adoptTab(id target.ID, acceptLang string) {
	s.mu.Lock()
	for _, t := range s.tabs {
		if t.id == id {
			s.mu.Unlock()
			return
		}
	}
	tabCtx, cancel := chromedp.NewContext(s.primaryCtx, chromedp.WithTargetID(id))
	t := &tabHandle{id: id, ctx: tabCtx, cancel: cancel}
	s.tabs = append(s.tabs, t)
	s.mu.Unlock()

	if err := chromedp.Run(tabCtx, stealth.Apply(s.fp, acceptLang)); err != nil {
		s.logger.Warn("Failed to fingerprint new tab", zap.String("target", string(id)), zap.Error(err))
	}
}

// activeCtx returns the chromedp context of the tab the driver points at.
func (s *Session) activeCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// run executes actions against the active tab, bounded by timeout and by the
// caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.activeCtx(), timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (s *Session) navTimeout() time.Duration {
	if s.cfg.NavigationTimeout > 0 {
		return s.cfg.NavigationTimeout
	}
	return 60 * time.Second
}

// -- schemas.PageDriver --

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating", zap.String("url", url))
	if err := s.run(ctx, s.navTimeout(), chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Reload(ctx context.Context) error {
	if err := s.run(ctx, s.navTimeout(), chromedp.Reload()); err != nil {
		return fmt.Errorf("reloading page: %w", err)
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, s.navTimeout(), chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

func (s *Session) Evaluate(ctx context.Context, expr string, out interface{}) error {
	if err := s.run(ctx, s.navTimeout(), chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluating script: %w", err)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %q: %w", sel, err)
	}
	return nil
}

// Click clicks the first match. When the click is intercepted by an overlay
// it dismisses the known prompts once and retries.
func (s *Session) Click(ctx context.Context, sel string) error {
	err := s.run(ctx, s.navTimeout(), chromedp.Click(sel, chromedp.ByQuery))
	if err == nil {
		return nil
	}

	s.logger.Debug("Click failed, dismissing prompts and retrying", zap.String("selector", sel), zap.Error(err))
	if derr := s.DismissPrompts(ctx); derr != nil {
		return fmt.Errorf("clicking %q: %w", sel, err)
	}
	if err := s.run(ctx, s.navTimeout(), chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("clicking %q: %w", sel, err)
	}
	return nil
}

// Type sends the text one keystroke at a time with humanized inter-key
// delays. A single SendKeys burst lands all keys within a few milliseconds,
// which no human produces.
func (s *Session) Type(ctx context.Context, sel, text string) error {
	runes := []rune(text)
	delays := s.typist.Delays(text)
	err := s.run(ctx, s.navTimeout(),
		chromedp.Focus(sel, chromedp.ByQuery),
		chromedp.ActionFunc(func(cctx context.Context) error {
			for i, r := range runes {
				select {
				case <-cctx.Done():
					return cctx.Err()
				case <-time.After(delays[i]):
				}
				if err := chromedp.SendKeys(sel, string(r), chromedp.ByQuery).Do(cctx); err != nil {
					return err
				}
			}
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("typing into %q: %w", sel, err)
	}
	return nil
}

func (s *Session) Submit(ctx context.Context, sel string) error {
	if err := s.run(ctx, s.navTimeout(), chromedp.Submit(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("submitting %q: %w", sel, err)
	}
	return nil
}

func (s *Session) Text(ctx context.Context, sel string) (string, error) {
	var out string
	if err := s.run(ctx, s.navTimeout(), chromedp.Text(sel, &out, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading text of %q: %w", sel, err)
	}
	return out, nil
}

func (s *Session) AttributeValue(ctx context.Context, sel, attr string) (string, bool, error) {
	var (
		val string
		ok  bool
	)
	if err := s.run(ctx, s.navTimeout(), chromedp.AttributeValue(sel, attr, &val, &ok, chromedp.ByQuery)); err != nil {
		return "", false, fmt.Errorf("reading attribute %q of %q: %w", attr, sel, err)
	}
	return val, ok, nil
}

// SwitchToNewTab points the driver at the most recently opened tab. Tab
// creation is asynchronous relative to the click that caused it, so this
// polls briefly before giving up.
func (s *Session) SwitchToNewTab(ctx context.Context) error {
	deadline := time.Now().Add(5 * time.Second)
	for {
		s.mu.Lock()
		if n := len(s.tabs); n > 0 {
			s.active = s.tabs[n-1].ctx
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		if time.Now().After(deadline) {
			// No tab appeared; the activity ran in place.
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

// ResetTabs closes every secondary tab and returns the driver to the
// primary one.
func (s *Session) ResetTabs(ctx context.Context) error {
	s.mu.Lock()
	tabs := s.tabs
	s.tabs = nil
	s.active = s.primaryCtx
	s.mu.Unlock()

	for _, t := range tabs {
		closeCtx, cancel := context.WithTimeout(t.ctx, 5*time.Second)
		if err := chromedp.Run(closeCtx, page.Close()); err != nil {
			s.logger.Debug("Failed to close tab", zap.String("target", string(t.id)), zap.Error(err))
		}
		cancel()
		t.cancel()
	}
	return nil
}

// DismissPrompts clicks through whichever known overlay buttons are present.
func (s *Session) DismissPrompts(ctx context.Context) error {
	for _, sel := range dismissSelectors {
		var nodeCount int
		probe := fmt.Sprintf("document.querySelectorAll(%q).length", sel)
		if err := s.run(ctx, 5*time.Second, chromedp.Evaluate(probe, &nodeCount)); err != nil {
			continue
		}
		if nodeCount == 0 {
			continue
		}

		if err := s.run(ctx, 5*time.Second, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
			s.logger.Debug("Prompt button did not accept click", zap.String("selector", sel), zap.Error(err))
			continue
		}
		s.logger.Debug("Dismissed prompt", zap.String("selector", sel))
		if err := s.Sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Close shuts the session down, closing secondary tabs first so Chrome
// flushes profile state cleanly.
func (s *Session) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.ResetTabs(closeCtx)

	if err := chromedp.Cancel(s.primaryCtx); err != nil {
		s.logger.Warn("Browser did not shut down cleanly", zap.Error(err))
	}
	s.primaryCancel()
	s.allocCancel()

	s.logger.Info("Browser session closed")
	return nil
}
