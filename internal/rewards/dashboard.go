// Package rewards implements the dashboard state boundary and the activity
// completion engine driving the points portal.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/retry"
)

var (
	// ErrSchemaChanged means the dashboard no longer matches the model this
	// tool was built against. Continuing would act on garbage, so callers
	// must abort the account run.
	ErrSchemaChanged = errors.New("dashboard schema changed")
	// ErrUnknownLevel means the account tier enum grew a new value.
	ErrUnknownLevel = errors.New("unknown rewards level")
)

const (
	fetchAttempts      = 5
	fetchRetryPause    = 10 * time.Second
	appHostSelector    = "#app-host"
	dashboardExpr      = "dashboard"
	dailySetDateLayout = "01/02/2006"
)

// Fetcher reads the embedded dashboard object from the portal page. Every
// Fetch navigates and reads fresh; nothing is cached between calls.
type Fetcher struct {
	logger  *zap.Logger
	page    schemas.PageDriver
	baseURL string

	// now is swappable so tests can pin the daily set date.
	now func() time.Time
}

func NewFetcher(logger *zap.Logger, page schemas.PageDriver, baseURL string) *Fetcher {
	return &Fetcher{
		logger:  logger.Named("dashboard"),
		page:    page,
		baseURL: baseURL,
		now:     time.Now,
	}
}

// GoToPortal navigates to the portal and verifies the browser actually
// landed there, reloading through transient redirects.
func (f *Fetcher) GoToPortal(ctx context.Context) error {
	if err := f.page.Navigate(ctx, f.baseURL); err != nil {
		return err
	}
	_, err := retry.Do(ctx, 3, 0, func() (struct{}, error) {
		loc, err := f.page.CurrentURL(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if loc == f.baseURL {
			return struct{}{}, nil
		}
		if err := f.page.Reload(ctx); err != nil {
			return struct{}{}, err
		}
		if err := f.page.Sleep(ctx, fetchRetryPause); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, fmt.Errorf("landed on %s instead of portal", loc)
	})
	return err
}

// Fetch returns the current dashboard state. The read is retried a fixed
// number of times, recovering between attempts with a reload and a wait for
// the app shell; the browser is returned to its prior page afterwards.
func (f *Fetcher) Fetch(ctx context.Context) (*schemas.DashboardState, error) {
	urlBefore, err := f.page.CurrentURL(ctx)
	if err != nil {
		urlBefore = f.baseURL
	}

	state, err := retry.Do(ctx, fetchAttempts, 0, func() (*schemas.DashboardState, error) {
		state, err := f.fetchOnce(ctx)
		if err != nil {
			f.logger.Warn("Dashboard read failed, recovering", zap.Error(err))
			f.recover(ctx)
		}
		return state, err
	})
	if err != nil {
		return nil, fmt.Errorf("reading dashboard state: %w", err)
	}

	if urlBefore != f.baseURL {
		if err := f.page.Navigate(ctx, urlBefore); err != nil {
			// The state is already in hand; failing to restore the page is
			// recoverable by the caller's next navigation.
			f.logger.Debug("Could not restore prior page", zap.String("url", urlBefore), zap.Error(err))
		}
	}
	return state, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context) (*schemas.DashboardState, error) {
	if err := f.GoToPortal(ctx); err != nil {
		return nil, err
	}
	var state schemas.DashboardState
	if err := f.page.Evaluate(ctx, dashboardExpr, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (f *Fetcher) recover(ctx context.Context) {
	if err := f.page.Reload(ctx); err != nil {
		return
	}
	if err := f.page.Sleep(ctx, fetchRetryPause); err != nil {
		return
	}
	_ = f.page.WaitVisible(ctx, appHostSelector, 30*time.Second)
}

// DailySet returns today's daily set activities, keyed by the portal's
// MM/DD/YYYY date format. A missing key simply means no set today.
func (f *Fetcher) DailySet(state *schemas.DashboardState) []schemas.Activity {
	return state.DailySetPromotions[f.now().Format(dailySetDateLayout)]
}

// AvailablePoints returns the account's current point balance.
func (f *Fetcher) AvailablePoints(ctx context.Context) (int64, error) {
	state, err := f.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	return state.UserStatus.AvailablePoints, nil
}

// Goal returns the account's redemption target. A zero Price means no goal
// is set.
func (f *Fetcher) Goal(ctx context.Context) (schemas.RedeemGoal, error) {
	state, err := f.Fetch(ctx)
	if err != nil {
		return schemas.RedeemGoal{}, err
	}
	return state.UserStatus.RedeemGoal, nil
}

// pointsPerSearch derives the per-search point value from the desktop
// counter's maximum. The buckets are market dependent; anything unknown is
// worth a single point.
func pointsPerSearch(pointProgressMax int64) int64 {
	switch {
	case pointProgressMax == 30 || pointProgressMax == 90 || pointProgressMax == 102:
		return 3
	case pointProgressMax == 50 || pointProgressMax == 150 || pointProgressMax >= 170:
		return 5
	}
	return 1
}

// RemainingSearches computes how many scored searches remain per surface.
// A remainder that does not divide evenly by the per-search value means the
// counter model is wrong, which is fatal for the account run.
func RemainingSearches(state *schemas.DashboardState) (schemas.RemainingSearches, error) {
	counters := state.UserStatus.Counters
	if len(counters.PCSearch) == 0 {
		return schemas.RemainingSearches{}, fmt.Errorf("%w: no desktop search counter", ErrSchemaChanged)
	}

	pc := counters.PCSearch[0]
	perSearch := pointsPerSearch(pc.PointProgressMax)
	pcRemaining := pc.PointProgressMax - pc.PointProgress
	if pcRemaining%perSearch != 0 {
		return schemas.RemainingSearches{}, fmt.Errorf(
			"%w: %d remaining desktop points not divisible by %d per search",
			ErrSchemaChanged, pcRemaining, perSearch)
	}
	out := schemas.RemainingSearches{Desktop: pcRemaining / perSearch}

	switch state.UserStatus.LevelInfo.ActiveLevel {
	case schemas.Level1:
		// Level 1 accounts earn nothing from mobile searches.
	case schemas.Level2:
		if len(counters.MobileSearch) == 0 {
			return schemas.RemainingSearches{}, fmt.Errorf("%w: no mobile search counter", ErrSchemaChanged)
		}
		mob := counters.MobileSearch[0]
		mobRemaining := mob.PointProgressMax - mob.PointProgress
		if mobRemaining%perSearch != 0 {
			return schemas.RemainingSearches{}, fmt.Errorf(
				"%w: %d remaining mobile points not divisible by %d per search",
				ErrSchemaChanged, mobRemaining, perSearch)
		}
		out.Mobile = mobRemaining / perSearch
	default:
		return schemas.RemainingSearches{}, fmt.Errorf("%w: %q", ErrUnknownLevel, state.UserStatus.LevelInfo.ActiveLevel)
	}

	return out, nil
}
