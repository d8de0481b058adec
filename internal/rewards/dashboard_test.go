package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
	"github.com/xkilldash9x/rewards-cli/internal/mocks"
)

const testPortalURL = "https://rewards.example.com/"

func fillState(state schemas.DashboardState) func(interface{}) {
	return func(out interface{}) {
		*(out.(*schemas.DashboardState)) = state
	}
}

func newTestFetcher(t *testing.T, page *mocks.MockPage) *Fetcher {
	f := NewFetcher(zaptest.NewLogger(t), page, testPortalURL)
	f.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestFetchReadsDashboard(t *testing.T) {
	page := new(mocks.MockPage)
	state := schemas.DashboardState{
		UserStatus: schemas.UserStatus{AvailablePoints: 1234},
	}

	page.On("CurrentURL", mock.Anything).Return(testPortalURL, nil)
	page.On("Navigate", mock.Anything, testPortalURL).Return(nil)
	page.On("Evaluate", mock.Anything, "dashboard", mock.Anything).Return(fillState(state), nil)

	got, err := newTestFetcher(t, page).Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1234, got.UserStatus.AvailablePoints)
	page.AssertExpectations(t)
}

func TestGoalReadsRedemptionTarget(t *testing.T) {
	page := new(mocks.MockPage)
	state := schemas.DashboardState{}
	state.UserStatus.RedeemGoal = schemas.RedeemGoal{Price: 9300, Title: "Gift Card"}

	page.On("CurrentURL", mock.Anything).Return(testPortalURL, nil)
	page.On("Navigate", mock.Anything, testPortalURL).Return(nil)
	page.On("Evaluate", mock.Anything, "dashboard", mock.Anything).Return(fillState(state), nil)

	goal, err := newTestFetcher(t, page).Goal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Gift Card", goal.Title)
	assert.EqualValues(t, 9300, goal.Price)
}

func TestFetchRecoversAndRetries(t *testing.T) {
	page := new(mocks.MockPage)
	state := schemas.DashboardState{
		UserStatus: schemas.UserStatus{AvailablePoints: 99},
	}

	page.On("CurrentURL", mock.Anything).Return(testPortalURL, nil)
	page.On("Navigate", mock.Anything, testPortalURL).Return(nil)
	page.On("Evaluate", mock.Anything, "dashboard", mock.Anything).
		Return(errors.New("dashboard is not defined")).Once()
	page.On("Evaluate", mock.Anything, "dashboard", mock.Anything).
		Return(fillState(state), nil)
	page.On("Reload", mock.Anything).Return(nil)
	page.On("Sleep", mock.Anything, mock.Anything).Return(nil)
	page.On("WaitVisible", mock.Anything, "#app-host", mock.Anything).Return(nil)

	got, err := newTestFetcher(t, page).Fetch(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 99, got.UserStatus.AvailablePoints)
	page.AssertCalled(t, "Reload", mock.Anything)
	page.AssertCalled(t, "WaitVisible", mock.Anything, "#app-host", mock.Anything)
}

func TestFetchRestoresPriorPage(t *testing.T) {
	page := new(mocks.MockPage)
	prior := "https://www.example.com/search?q=x"

	page.On("CurrentURL", mock.Anything).Return(prior, nil).Once()
	page.On("CurrentURL", mock.Anything).Return(testPortalURL, nil)
	page.On("Navigate", mock.Anything, testPortalURL).Return(nil)
	page.On("Evaluate", mock.Anything, "dashboard", mock.Anything).
		Return(fillState(schemas.DashboardState{}), nil)
	page.On("Navigate", mock.Anything, prior).Return(nil)

	_, err := newTestFetcher(t, page).Fetch(context.Background())
	require.NoError(t, err)
	page.AssertCalled(t, "Navigate", mock.Anything, prior)
}

func TestDailySetUsesTodaysKey(t *testing.T) {
	page := new(mocks.MockPage)
	f := newTestFetcher(t, page)

	state := &schemas.DashboardState{
		DailySetPromotions: map[string][]schemas.Activity{
			"08/28/2026": {{Title: "Today"}},
			"08/27/2026": {{Title: "Yesterday"}},
		},
	}

	set := f.DailySet(state)
	require.Len(t, set, 1)
	assert.Equal(t, "Today", set[0].Title)
}

func TestRemainingSearchesLevel1(t *testing.T) {
	state := &schemas.DashboardState{
		UserStatus: schemas.UserStatus{
			LevelInfo: schemas.LevelInfo{ActiveLevel: schemas.Level1},
			Counters: schemas.Counters{
				PCSearch: []schemas.Counter{{PointProgress: 72, PointProgressMax: 90}},
			},
		},
	}

	got, err := RemainingSearches(state)
	require.NoError(t, err)
	// (90-72)/3 = 6 searches; mobile earns nothing at level 1.
	assert.EqualValues(t, 6, got.Desktop)
	assert.EqualValues(t, 0, got.Mobile)
	assert.EqualValues(t, 6, got.Total())
}

func TestRemainingSearchesLevel2(t *testing.T) {
	state := &schemas.DashboardState{
		UserStatus: schemas.UserStatus{
			LevelInfo: schemas.LevelInfo{ActiveLevel: schemas.Level2},
			Counters: schemas.Counters{
				PCSearch:     []schemas.Counter{{PointProgress: 0, PointProgressMax: 150}},
				MobileSearch: []schemas.Counter{{PointProgress: 50, PointProgressMax: 100}},
			},
		},
	}

	got, err := RemainingSearches(state)
	require.NoError(t, err)
	assert.EqualValues(t, 30, got.Desktop)
	assert.EqualValues(t, 10, got.Mobile)
}

func TestRemainingSearchesDivisibilityIsFatal(t *testing.T) {
	state := &schemas.DashboardState{
		UserStatus: schemas.UserStatus{
			LevelInfo: schemas.LevelInfo{ActiveLevel: schemas.Level1},
			Counters: schemas.Counters{
				PCSearch: []schemas.Counter{{PointProgress: 71, PointProgressMax: 90}},
			},
		},
	}

	_, err := RemainingSearches(state)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaChanged)
}

func TestRemainingSearchesUnknownLevelIsFatal(t *testing.T) {
	state := &schemas.DashboardState{
		UserStatus: schemas.UserStatus{
			LevelInfo: schemas.LevelInfo{ActiveLevel: "Level3"},
			Counters: schemas.Counters{
				PCSearch: []schemas.Counter{{PointProgress: 0, PointProgressMax: 90}},
			},
		},
	}

	_, err := RemainingSearches(state)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestPointsPerSearchBuckets(t *testing.T) {
	tests := []struct {
		max  int64
		want int64
	}{
		{30, 3}, {90, 3}, {102, 3},
		{50, 5}, {150, 5}, {170, 5}, {250, 5},
		{60, 1}, {0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pointsPerSearch(tt.max), "max=%d", tt.max)
	}
}
