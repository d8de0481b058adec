package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/accounts"
	"github.com/xkilldash9x/rewards-cli/internal/browser"
	"github.com/xkilldash9x/rewards-cli/internal/config"
	"github.com/xkilldash9x/rewards-cli/internal/history"
	"github.com/xkilldash9x/rewards-cli/internal/login"
	"github.com/xkilldash9x/rewards-cli/internal/notify"
	"github.com/xkilldash9x/rewards-cli/internal/observability"
	"github.com/xkilldash9x/rewards-cli/internal/rewards"
	"github.com/xkilldash9x/rewards-cli/internal/searches"
)

var (
	flagSearchType string
	flagParallel   bool
	flagLang       string
	flagGeo        string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sign in each account and complete its activities and searches",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("visible", false, "run the browser with a visible window")
	runCmd.Flags().StringVar(&flagLang, "lang", "", "force the interface language for every account (e.g. en)")
	runCmd.Flags().StringVar(&flagGeo, "geo", "", "force the country code for every account (e.g. US)")
	runCmd.Flags().String("proxy", "", "proxy address for all accounts without one of their own")
	runCmd.Flags().StringVar(&flagSearchType, "search-type", "all", "which search surfaces to spend: all, desktop, mobile, none")
	runCmd.Flags().BoolVar(&flagParallel, "parallel", false, "process accounts concurrently")

	_ = viper.BindPFlag("browser.visible", runCmd.Flags().Lookup("visible"))
	_ = viper.BindPFlag("network.proxy.address", runCmd.Flags().Lookup("proxy"))
}

// accountResult captures one account's outcome for the summary and history.
type accountResult struct {
	account    string
	points     int64
	delta      int64
	incomplete []rewards.IncompleteActivity
	err        error
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	cfg := appCfg

	switch flagSearchType {
	case "all", "desktop", "mobile", "none":
	default:
		return fmt.Errorf("unknown --search-type %q", flagSearchType)
	}
	if cmd.Flags().Changed("proxy") {
		cfg.Network.Proxy.Enabled = true
	}

	accts, err := accounts.Load(logger, cfg.Accounts.File)
	if err != nil {
		return err
	}

	store := history.NewStore(logger, cfg.History.Dir)
	previous, err := store.PreviousPoints()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger.Info("Run starting", zap.String("run_id", runID), zap.Int("accounts", len(accts)))

	resolver := browser.NewLocaleResolver(logger)
	results := make([]accountResult, len(accts))

	if flagParallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, acct := range accts {
			g.Go(func() error {
				results[i] = runAccount(gctx, logger, cfg, resolver, acct)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, acct := range accts {
			results[i] = runAccount(ctx, logger, cfg, resolver, acct)
			if ctx.Err() != nil {
				break
			}
		}
	}

	recordResults(logger, store, previous, results)
	sendNotifications(ctx, logger, cfg, results)

	for _, res := range results {
		if res.err != nil {
			return fmt.Errorf("one or more accounts failed")
		}
	}
	return nil
}

// runAccount executes the full desktop flow for one account and then, when
// enabled, a mobile session for the mobile search counter.
func runAccount(ctx context.Context, logger *zap.Logger, cfg *config.Config, resolver *browser.LocaleResolver, acct schemas.Account) accountResult {
	res := accountResult{account: acct.Username}
	log := logger.With(zap.String("account", acct.Username))

	// --lang/--geo are explicit operator choices and outrank the account's
	// stored locale.
	loc := resolver.Resolve(ctx, flagLang, flagGeo, acct.Language, acct.Geolocation, cfg.Browser.Language, cfg.Browser.Geolocation)

	points, incomplete, err := runDesktop(ctx, log, cfg, acct, loc)
	if err != nil {
		res.err = err
		log.Error("Desktop session failed", zap.Error(err))
		return res
	}
	res.points = points
	res.incomplete = incomplete

	if searchesEnabled(cfg.Rewards.MobileSearches, "mobile") {
		if pts, err := runMobile(ctx, log, cfg, acct, loc); err != nil {
			// Mobile is searches only; its failure does not void the day.
			log.Error("Mobile session failed", zap.Error(err))
		} else {
			res.points = pts
		}
	}

	log.Info("Account finished", zap.Int64("points", res.points))
	return res
}

func runDesktop(ctx context.Context, log *zap.Logger, cfg *config.Config, acct schemas.Account, loc browser.Locale) (int64, []rewards.IncompleteActivity, error) {
	profile, err := browser.LoadOrCreateProfile(log, cfg.Browser.SessionsDir, acct.Username, schemas.DeviceDesktop)
	if err != nil {
		return 0, nil, err
	}

	var points int64
	var incomplete []rewards.IncompleteActivity
	err = browser.WithSession(ctx, log, cfg.Browser, cfg.Network.Proxy, acct, browser.NewFingerprint(profile), loc, func(session *browser.Session) error {
		if err := login.NewFlow(log, session, cfg.Rewards.BaseURL).SignIn(ctx, acct); err != nil {
			return err
		}

		fetcher := rewards.NewFetcher(log, session, cfg.Rewards.BaseURL)
		starting, err := fetcher.AvailablePoints(ctx)
		if err != nil {
			return err
		}
		log.Info("Signed in", zap.Int64("starting_points", starting))

		report, err := rewards.NewEngine(log, session, fetcher, cfg.Rewards).Run(ctx)
		if err != nil {
			return err
		}
		incomplete = report.Incomplete

		if searchesEnabled(cfg.Rewards.DesktopSearches, "desktop") {
			spender := searches.NewSpender(log, session, fetcher, cfg.Rewards, schemas.DeviceDesktop)
			if err := spender.Run(ctx); err != nil {
				return err
			}
		}

		state, err := fetcher.Fetch(ctx)
		if err != nil {
			return err
		}
		points = state.UserStatus.AvailablePoints
		if goal := state.UserStatus.RedeemGoal; goal.Price > 0 {
			log.Info("Goal progress",
				zap.String("goal", goal.Title),
				zap.Int64("points", points),
				zap.Int64("price", goal.Price),
			)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return points, incomplete, nil
}

func runMobile(ctx context.Context, log *zap.Logger, cfg *config.Config, acct schemas.Account, loc browser.Locale) (int64, error) {
	profile, err := browser.LoadOrCreateProfile(log, cfg.Browser.SessionsDir, acct.Username, schemas.DeviceMobile)
	if err != nil {
		return 0, err
	}

	var points int64
	err = browser.WithSession(ctx, log, cfg.Browser, cfg.Network.Proxy, acct, browser.NewFingerprint(profile), loc, func(session *browser.Session) error {
		if err := login.NewFlow(log, session, cfg.Rewards.BaseURL).SignIn(ctx, acct); err != nil {
			return err
		}

		fetcher := rewards.NewFetcher(log, session, cfg.Rewards.BaseURL)
		spender := searches.NewSpender(log, session, fetcher, cfg.Rewards, schemas.DeviceMobile)
		if err := spender.Run(ctx); err != nil {
			return err
		}
		points, err = fetcher.AvailablePoints(ctx)
		return err
	})
	return points, err
}

func searchesEnabled(configured bool, surface string) bool {
	if !configured {
		return false
	}
	return flagSearchType == "all" || flagSearchType == surface
}

// recordResults appends a history row per successful account and refreshes the
// balance snapshot used to compute the next run's deltas.
func recordResults(logger *zap.Logger, store *history.Store, previous map[string]int64, results []accountResult) {
	today := time.Now().Format("01/02/2006")
	for i := range results {
		res := &results[i]
		if res.err != nil {
			continue
		}
		res.delta = res.points - previous[res.account]
		if _, seen := previous[res.account]; !seen {
			res.delta = 0
		}
		previous[res.account] = res.points

		rec := history.Record{Date: today, Points: res.points, Delta: res.delta}
		if err := store.Append(res.account, rec); err != nil {
			logger.Warn("Recording points history failed", zap.String("account", res.account), zap.Error(err))
		}
	}
	if err := store.SavePreviousPoints(previous); err != nil {
		logger.Warn("Saving balance snapshot failed", zap.Error(err))
	}
}

func sendNotifications(ctx context.Context, logger *zap.Logger, cfg *config.Config, results []accountResult) {
	notifier := notify.NewNotifier(logger, cfg.Notify)

	failed := false
	var summary strings.Builder
	var incomplete strings.Builder
	for _, res := range results {
		if res.err != nil {
			failed = true
			fmt.Fprintf(&summary, "%s: FAILED: %v\n", res.account, res.err)
			continue
		}
		fmt.Fprintf(&summary, "%s: %d points (+%d)\n", res.account, res.points, res.delta)
		for _, act := range res.incomplete {
			fmt.Fprintf(&incomplete, "%s: %q at %d/%d\n", res.account, act.Title, act.PointProgress, act.PointProgressMax)
		}
	}

	send := cfg.Notify.Summary == config.SummaryAlways ||
		(cfg.Notify.Summary == config.SummaryOnError && failed)
	if send {
		notifier.Send(ctx, "Rewards run summary", summary.String())
	}
	if cfg.Notify.IncompleteActivity && incomplete.Len() > 0 {
		notifier.Send(ctx, "Incomplete activities", incomplete.String())
	}
}
