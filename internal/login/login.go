// Package login drives the account sign-in flow, including the optional
// time-based one-time-password step.
package login

import (
	"context"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

const (
	liveLoginURL = "https://login.live.com/"

	emailSelector    = `input[name="loginfmt"]`
	passwordSelector = `input[name="passwd"]`
	otcSelector      = `input[name="otc"]`
	submitSelector   = "#idSIButton9"

	// portalLandmark only renders for an authenticated session.
	portalLandmark = `html[data-role-name="RewardsPortal"]`

	stepTimeout = 30 * time.Second
)

// Flow performs sign-in for one account on one session.
type Flow struct {
	logger  *zap.Logger
	page    schemas.PageDriver
	baseURL string
}

func NewFlow(logger *zap.Logger, page schemas.PageDriver, baseURL string) *Flow {
	return &Flow{
		logger:  logger.Named("login"),
		page:    page,
		baseURL: baseURL,
	}
}

// SignIn makes sure the session is authenticated as the account, running the
// interactive flow only when the persisted profile's cookies have lapsed.
func (f *Flow) SignIn(ctx context.Context, account schemas.Account) error {
	if f.loggedIn(ctx) {
		f.logger.Info("Session already authenticated", zap.String("account", account.Username))
		return nil
	}

	f.logger.Info("Signing in", zap.String("account", account.Username))
	if err := f.page.Navigate(ctx, liveLoginURL); err != nil {
		return err
	}

	if err := f.submitField(ctx, emailSelector, account.Username); err != nil {
		return fmt.Errorf("submitting username: %w", err)
	}
	if err := f.submitField(ctx, passwordSelector, account.Password); err != nil {
		return fmt.Errorf("submitting password: %w", err)
	}

	if account.TOTP != "" {
		if err := f.submitOneTimeCode(ctx, account.TOTP); err != nil {
			return fmt.Errorf("submitting one-time code: %w", err)
		}
	}

	// "Stay signed in?" and similar interstitials.
	if err := f.page.DismissPrompts(ctx); err != nil {
		return err
	}

	if !f.loggedIn(ctx) {
		return fmt.Errorf("sign-in did not reach the portal for %s", account.Username)
	}
	f.logger.Info("Signed in", zap.String("account", account.Username))
	return nil
}

// loggedIn checks for the authenticated portal landmark.
func (f *Flow) loggedIn(ctx context.Context) bool {
	if err := f.page.Navigate(ctx, f.baseURL+"Signin/"); err != nil {
		return false
	}
	return f.page.WaitVisible(ctx, portalLandmark, 10*time.Second) == nil
}

func (f *Flow) submitField(ctx context.Context, sel, value string) error {
	if err := f.page.WaitVisible(ctx, sel, stepTimeout); err != nil {
		return err
	}
	if err := f.page.Type(ctx, sel, value); err != nil {
		return err
	}
	if err := f.page.Sleep(ctx, time.Second); err != nil {
		return err
	}
	return f.page.Click(ctx, submitSelector)
}

func (f *Flow) submitOneTimeCode(ctx context.Context, secret string) error {
	if err := f.page.WaitVisible(ctx, otcSelector, stepTimeout); err != nil {
		return err
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		return fmt.Errorf("generating TOTP code: %w", err)
	}
	return f.submitField(ctx, otcSelector, code)
}
