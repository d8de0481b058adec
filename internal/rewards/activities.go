package rewards

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/config"
)

const (
	searchBoxSelector     = "#sb_form_q"
	quizContainerSelector = "#currentQuestionContainer"
	quizStartSelector     = "#rqStartQuiz"
	quizCreditsSelector   = ".rqECredits"
	abcCounterSelector    = "#QuestionPane0 > div:nth-child(2)"

	thisOrThatRounds = 10
	quizLoadTimeout  = 180 * time.Second
)

// IncompleteActivity is one activity still short of its maximum after a run.
type IncompleteActivity struct {
	Title            string
	PromotionType    string
	PointProgress    int64
	PointProgressMax int64
}

// Report is the outcome of one engine run.
type Report struct {
	Incomplete []IncompleteActivity
}

// Engine walks the daily set and the promotions catalog, completing each
// activity with the protocol its classification selects. One activity
// failing never stops the run; every activity is isolated in its own tab.
type Engine struct {
	logger  *zap.Logger
	page    schemas.PageDriver
	fetcher *Fetcher
	cfg     config.RewardsConfig

	// randInt is swappable so tests are deterministic.
	randInt func(lo, hi int) int
}

func NewEngine(logger *zap.Logger, page schemas.PageDriver, fetcher *Fetcher, cfg config.RewardsConfig) *Engine {
	return &Engine{
		logger:  logger.Named("activities"),
		page:    page,
		fetcher: fetcher,
		cfg:     cfg,
		randInt: func(lo, hi int) int { return lo + rand.Intn(hi-lo+1) },
	}
}

// Run completes both activity catalogs and reports what remains incomplete.
// Catalogs are re-read from the dashboard before each pass; progress is
// never assumed stable across passes.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	state, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return Report{}, err
	}

	e.logger.Info("Completing daily set")
	daily := e.fetcher.DailySet(state)
	if err := e.fetcher.GoToPortal(ctx); err != nil {
		return Report{}, err
	}
	for i, a := range daily {
		e.doActivity(ctx, a, i, true)
	}

	state, err = e.fetcher.Fetch(ctx)
	if err != nil {
		return Report{}, err
	}
	e.logger.Info("Completing promotions")
	if err := e.fetcher.GoToPortal(ctx); err != nil {
		return Report{}, err
	}
	for i, a := range state.MorePromotions {
		e.doActivity(ctx, a, i, false)
	}

	return e.report(ctx)
}

// report re-reads both catalogs and lists everything still short of its
// maximum, minus the configured ignore list.
func (e *Engine) report(ctx context.Context) (Report, error) {
	state, err := e.fetcher.Fetch(ctx)
	if err != nil {
		return Report{}, err
	}

	var rep Report
	all := append(e.fetcher.DailySet(state), state.MorePromotions...)
	for _, a := range all {
		if a.PointProgress >= a.PointProgressMax {
			continue
		}
		title := CleanTitle(a.Title)
		if e.ignored(title) {
			continue
		}
		rep.Incomplete = append(rep.Incomplete, IncompleteActivity{
			Title:            title,
			PromotionType:    a.PromotionType,
			PointProgress:    a.PointProgress,
			PointProgressMax: a.PointProgressMax,
		})
	}
	if len(rep.Incomplete) > 0 {
		e.logger.Info("Some activities remain incomplete", zap.Int("count", len(rep.Incomplete)))
	}
	return rep, nil
}

func (e *Engine) ignored(title string) bool {
	for _, ig := range e.cfg.IgnoreActivities {
		if title == ig {
			return true
		}
	}
	return false
}

// doActivity opens and completes one activity. Errors are logged, not
// propagated; the tab state is always reset afterwards.
func (e *Engine) doActivity(ctx context.Context, a schemas.Activity, idx int, dailySet bool) {
	title := CleanTitle(a.Title)
	c := Classify(a, e.cfg.IgnoreActivities)
	if c.Kind == KindSkip {
		e.logger.Debug("Skipping activity", zap.String("title", title))
		return
	}

	e.logger.Info("Doing activity",
		zap.String("title", title),
		zap.String("kind", c.Kind.String()),
		zap.Int64("points", a.PointProgressMax),
	)

	defer func() {
		if err := e.page.ResetTabs(ctx); err != nil {
			e.logger.Warn("Failed to reset tabs", zap.Error(err))
		}
		if err := e.fetcher.GoToPortal(ctx); err != nil {
			e.logger.Warn("Failed to return to portal", zap.Error(err))
		}
	}()

	if err := e.open(ctx, idx, dailySet); err != nil {
		e.logger.Error("Failed to open activity", zap.String("title", title), zap.Error(err))
		return
	}
	if err := e.complete(ctx, c); err != nil {
		e.logger.Error("Activity failed", zap.String("title", title), zap.Error(err))
		return
	}
	e.delay(ctx, 10, 20)
}

// open clicks the activity card and moves into whatever tab it opened.
func (e *Engine) open(ctx context.Context, idx int, dailySet bool) error {
	sel := morePromoSelector(idx)
	if dailySet {
		sel = dailySetSelector(idx)
	}
	if err := e.page.Click(ctx, sel); err != nil {
		return err
	}
	if err := e.page.Sleep(ctx, 2*time.Second); err != nil {
		return err
	}
	if err := e.page.SwitchToNewTab(ctx); err != nil {
		return err
	}
	if err := e.page.Sleep(ctx, 2*time.Second); err != nil {
		return err
	}
	// Some activities land on the search page; focusing the box settles it.
	e.clickIfPresent(ctx, searchBoxSelector)
	return nil
}

func dailySetSelector(idx int) string {
	return fmt.Sprintf("#daily-sets mee-card-group:first-of-type mee-card:nth-of-type(%d) mee-rewards-daily-set-item-content a", idx+1)
}

func morePromoSelector(idx int) string {
	return fmt.Sprintf("#more-activities > .m-card-group > .ng-scope:nth-child(%d) .ds-card-sec", idx+1)
}

func (e *Engine) complete(ctx context.Context, c Classification) error {
	switch c.Kind {
	case KindRedirectSearch:
		return e.completeRedirectSearch(ctx, c.Query)
	case KindPoll:
		return e.completePoll(ctx)
	case KindPassive:
		// The visit itself is the activity.
		return nil
	case KindABC:
		return e.completeABC(ctx)
	case KindQuiz:
		return e.completeQuiz(ctx)
	case KindThisOrThat:
		return e.completeThisOrThat(ctx)
	}
	return nil
}

// completeRedirectSearch types the canned query and submits it.
func (e *Engine) completeRedirectSearch(ctx context.Context, query string) error {
	if err := e.page.Type(ctx, searchBoxSelector, query); err != nil {
		return err
	}
	if err := e.page.Sleep(ctx, time.Second); err != nil {
		return err
	}
	return e.page.Submit(ctx, searchBoxSelector)
}

// completePoll answers a two-option survey. Any option scores.
func (e *Engine) completePoll(ctx context.Context) error {
	return e.page.Click(ctx, fmt.Sprintf("#btoption%d", e.randInt(0, 1)))
}

// completeABC walks the multi-step multiple choice flow. The question count
// comes from the "(1 of N)" style counter next to the first question.
func (e *Engine) completeABC(ctx context.Context) error {
	counter, err := e.page.Text(ctx, abcCounterSelector)
	if err != nil {
		return err
	}
	questions, err := questionCount(counter)
	if err != nil {
		return err
	}

	for q := 0; q < questions; q++ {
		choice := fmt.Sprintf("#questionOptionChoice%d%d", q, e.randInt(0, 2))
		if err := e.page.Click(ctx, choice); err != nil {
			return err
		}
		e.delay(ctx, 10, 15)
		if err := e.page.Click(ctx, fmt.Sprintf("#nextQuestionbtn%d", q)); err != nil {
			return err
		}
		e.delay(ctx, 10, 15)
	}
	return nil
}

// questionCount extracts the largest integer from the counter text after
// stripping its surrounding bracket characters.
func questionCount(counter string) (int, error) {
	runes := []rune(strings.TrimSpace(counter))
	if len(runes) >= 2 {
		runes = runes[1 : len(runes)-1]
	}

	best := 0
	for _, field := range strings.Fields(string(runes)) {
		if n, err := strconv.Atoi(field); err == nil && n > best {
			best = n
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("no question count in counter text %q", counter)
	}
	return best, nil
}

// completeQuiz answers the start-quiz flow using the per-question metadata
// the page publishes in _w.rewardsQuizRenderInfo.
func (e *Engine) completeQuiz(ctx context.Context) error {
	if err := e.page.Sleep(ctx, 12*time.Second); err != nil {
		return err
	}
	if !e.waitQuizLoad(ctx) {
		e.logger.Warn("Quiz never loaded, giving up")
		return nil
	}
	e.clickIfPresent(ctx, quizStartSelector)
	if err := e.page.WaitVisible(ctx, quizContainerSelector, quizLoadTimeout); err != nil {
		return err
	}

	var current, maxQuestions, options int
	if err := e.page.Evaluate(ctx, "_w.rewardsQuizRenderInfo.currentQuestionNumber", &current); err != nil {
		return err
	}
	if err := e.page.Evaluate(ctx, "_w.rewardsQuizRenderInfo.maxQuestions", &maxQuestions); err != nil {
		return err
	}
	if err := e.page.Evaluate(ctx, "_w.rewardsQuizRenderInfo.numberOfOptions", &options); err != nil {
		return err
	}

	for q := current; q <= maxQuestions; q++ {
		var err error
		if options == 8 {
			err = e.answerMultiSelect(ctx, options)
		} else {
			err = e.answerSingleSelect(ctx, options)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// answerMultiSelect clicks every option flagged correct; eight-option
// questions accept several answers per round.
func (e *Engine) answerMultiSelect(ctx context.Context, options int) error {
	for i := 0; i < options; i++ {
		sel := fmt.Sprintf("#rqAnswerOption%d", i)
		val, ok, err := e.page.AttributeValue(ctx, sel, "iscorrectoption")
		if err != nil || !ok || !strings.EqualFold(val, "true") {
			continue
		}
		if err := e.page.Click(ctx, sel); err != nil {
			return err
		}
		e.waitQuestionRefresh(ctx)
	}
	return nil
}

// answerSingleSelect clicks the option whose data-option matches the
// published correct answer.
func (e *Engine) answerSingleSelect(ctx context.Context, options int) error {
	var correct string
	if err := e.page.Evaluate(ctx, "String(_w.rewardsQuizRenderInfo.correctAnswer)", &correct); err != nil {
		return err
	}
	for i := 0; i < options; i++ {
		sel := fmt.Sprintf("#rqAnswerOption%d", i)
		val, ok, err := e.page.AttributeValue(ctx, sel, "data-option")
		if err != nil || !ok || val != correct {
			continue
		}
		if err := e.page.Click(ctx, sel); err != nil {
			return err
		}
		e.waitQuestionRefresh(ctx)
		return nil
	}
	e.logger.Warn("No option matched the published answer")
	return nil
}

// completeThisOrThat plays the ten-round two-option quiz. The correct side
// is found by reproducing the page's answer checksum for each option.
func (e *Engine) completeThisOrThat(ctx context.Context) error {
	if err := e.page.Sleep(ctx, 12*time.Second); err != nil {
		return err
	}
	if !e.waitQuizLoad(ctx) {
		e.logger.Warn("Quiz never loaded, giving up")
		return nil
	}
	e.clickIfPresent(ctx, quizStartSelector)
	if err := e.page.WaitVisible(ctx, quizContainerSelector, quizLoadTimeout); err != nil {
		return err
	}
	e.delay(ctx, 10, 15)

	for round := 0; round < thisOrThatRounds; round++ {
		var correct string
		if err := e.page.Evaluate(ctx, "String(_w.rewardsQuizRenderInfo.correctAnswer)", &correct); err != nil {
			return err
		}
		var key string
		if err := e.page.Evaluate(ctx, "_G.IG", &key); err != nil {
			return err
		}

		clicked := false
		for i := 0; i < 2; i++ {
			sel := fmt.Sprintf("#rqAnswerOption%d", i)
			option, ok, err := e.page.AttributeValue(ctx, sel, "data-option")
			if err != nil || !ok {
				continue
			}
			code, err := AnswerCode(key, option)
			if err != nil {
				return err
			}
			if code == correct {
				if err := e.page.Click(ctx, sel); err != nil {
					return err
				}
				clicked = true
				break
			}
		}
		if !clicked {
			// Checksum mismatch on both sides; guess rather than stall.
			e.logger.Warn("Neither option matched the answer checksum", zap.Int("round", round))
			if err := e.page.Click(ctx, "#rqAnswerOption0"); err != nil {
				return err
			}
		}
		e.delay(ctx, 10, 15)
	}
	return nil
}

// waitQuizLoad polls for the question container, reloading the page a few
// times before declaring the quiz broken.
func (e *Engine) waitQuizLoad(ctx context.Context) bool {
	for refresh := 0; ; refresh++ {
		for try := 0; try < 10; try++ {
			if e.present(ctx, quizContainerSelector) {
				return true
			}
			if err := e.page.Sleep(ctx, 500*time.Millisecond); err != nil {
				return false
			}
		}
		if refresh >= 5 {
			return false
		}
		if err := e.page.Reload(ctx); err != nil {
			return false
		}
		if err := e.page.Sleep(ctx, 5*time.Second); err != nil {
			return false
		}
	}
}

func (e *Engine) waitQuestionRefresh(ctx context.Context) {
	if err := e.page.WaitVisible(ctx, quizCreditsSelector, 20*time.Second); err != nil {
		e.logger.Debug("Question did not refresh in time", zap.Error(err))
	}
}

func (e *Engine) present(ctx context.Context, sel string) bool {
	var found bool
	expr := fmt.Sprintf("document.querySelector(%q) !== null", sel)
	if err := e.page.Evaluate(ctx, expr, &found); err != nil {
		return false
	}
	return found
}

func (e *Engine) clickIfPresent(ctx context.Context, sel string) {
	if !e.present(ctx, sel) {
		return
	}
	if err := e.page.Click(ctx, sel); err != nil {
		e.logger.Debug("Optional click failed", zap.String("selector", sel), zap.Error(err))
	}
}

func (e *Engine) delay(ctx context.Context, loSeconds, hiSeconds int) {
	d := time.Duration(e.randInt(loSeconds, hiSeconds)) * time.Second
	if err := e.page.Sleep(ctx, d); err != nil {
		e.logger.Debug("Delay interrupted", zap.Error(err))
	}
}
