// Package searches spends the remaining scored searches on a session.
package searches

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/config"
	"github.com/xkilldash9x/rewards-cli/internal/rewards"
)

const (
	searchBoxSelector = "#sb_form_q"

	// maxPasses bounds re-checking: counters lag behind searches, so a pass
	// can end with points still pending. More than a few passes means the
	// searches are not scoring and repeating them is waste.
	maxPasses = 3
)

// searchTerms seed the query generator. Combined with a numeric suffix they
// produce enough variety that a run never repeats a query.
var searchTerms = []string{
	"weather forecast", "news today", "stock market", "movie showtimes",
	"recipes dinner", "sports scores", "traffic conditions", "best restaurants",
	"flight prices", "hotel deals", "currency exchange", "translate hello",
	"population of", "distance between cities", "how to tie a tie",
	"history of rome", "science facts", "space news", "music charts",
	"book recommendations", "gardening tips", "workout routines",
	"healthy snacks", "coffee near me", "electric cars", "phone reviews",
	"laptop comparison", "game releases", "tv schedule", "local events",
}

// Spender runs the search loop for one device surface.
type Spender struct {
	logger  *zap.Logger
	page    schemas.PageDriver
	fetcher *rewards.Fetcher
	cfg     config.RewardsConfig
	class   schemas.DeviceClass

	randInt func(lo, hi int) int
}

func NewSpender(logger *zap.Logger, page schemas.PageDriver, fetcher *rewards.Fetcher, cfg config.RewardsConfig, class schemas.DeviceClass) *Spender {
	return &Spender{
		logger:  logger.Named("searches").With(zap.String("class", string(class))),
		page:    page,
		fetcher: fetcher,
		cfg:     cfg,
		class:   class,
		randInt: func(lo, hi int) int { return lo + rand.Intn(hi-lo+1) },
	}
}

// Run performs searches until the surface's counter is exhausted or the pass
// budget runs out. The remaining count is re-read from the dashboard before
// every pass rather than decremented locally.
func (s *Spender) Run(ctx context.Context) error {
	for pass := 0; pass < maxPasses; pass++ {
		remaining, err := s.remaining(ctx)
		if err != nil {
			return err
		}
		if remaining == 0 {
			s.logger.Info("No searches remaining")
			return nil
		}

		s.logger.Info("Spending searches", zap.Int64("remaining", remaining), zap.Int("pass", pass+1))
		for i := int64(0); i < remaining; i++ {
			if err := s.doSearch(ctx, s.query()); err != nil {
				s.logger.Warn("Search failed", zap.Error(err))
			}
		}
	}

	remaining, err := s.remaining(ctx)
	if err != nil {
		return err
	}
	if remaining > 0 {
		s.logger.Warn("Searches left unscored after all passes", zap.Int64("remaining", remaining))
	}
	return nil
}

func (s *Spender) remaining(ctx context.Context) (int64, error) {
	state, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, err
	}
	rem, err := rewards.RemainingSearches(state)
	if err != nil {
		return 0, err
	}
	if s.class == schemas.DeviceMobile {
		return rem.Mobile, nil
	}
	return rem.Desktop, nil
}

func (s *Spender) doSearch(ctx context.Context, query string) error {
	if err := s.page.Navigate(ctx, s.cfg.SearchURL); err != nil {
		return err
	}
	if err := s.page.WaitVisible(ctx, searchBoxSelector, 30*time.Second); err != nil {
		return err
	}
	if err := s.page.Type(ctx, searchBoxSelector, query); err != nil {
		return err
	}
	if err := s.page.Submit(ctx, searchBoxSelector); err != nil {
		return err
	}
	// Pause long enough for the search to register before the next one.
	return s.page.Sleep(ctx, time.Duration(s.randInt(8, 15))*time.Second)
}

// query picks a seed term and decorates it so repeats are unlikely.
func (s *Spender) query() string {
	term := searchTerms[s.randInt(0, len(searchTerms)-1)]
	return fmt.Sprintf("%s %d", term, s.randInt(1, 9999))
}
