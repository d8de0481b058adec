package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceProfileScreenGeometry(t *testing.T) {
	desktop := &DeviceProfile{
		Class: DeviceDesktop,
		Sizes: ViewportSize{Width: 1920, Height: 1080},
	}
	assert.Equal(t, int64(1975), desktop.ScreenWidth())
	assert.Equal(t, int64(1231), desktop.ScreenHeight())

	mobile := &DeviceProfile{
		Class: DeviceMobile,
		Sizes: ViewportSize{Width: 414, Height: 896},
	}
	// Mobile screens share the viewport width; only height gains chrome.
	assert.Equal(t, int64(414), mobile.ScreenWidth())
	assert.Equal(t, int64(1042), mobile.ScreenHeight())
}

func TestDashboardStateDecode(t *testing.T) {
	raw := `{
		"userStatus": {
			"availablePoints": 12345,
			"levelInfo": {"activeLevel": "Level2"},
			"redeemGoal": {"price": 9300, "title": "Xbox Gift Card"},
			"counters": {
				"pcSearch": [{"pointProgressMax": 90, "pointProgress": 72}],
				"mobileSearch": [{"pointProgressMax": 60, "pointProgress": 0}]
			}
		},
		"dailySetPromotions": {
			"08/28/2026": [
				{"title": "Test quiz", "complete": false, "pointProgress": 0,
				 "pointProgressMax": 30, "promotionType": "quiz",
				 "attributes": {"daily_set_date": "08/28/2026"}}
			]
		},
		"morePromotions": [
			{"title": "Locked thing", "complete": false, "pointProgressMax": 10,
			 "promotionType": "quiz", "exclusiveLockedFeatureStatus": "locked"}
		]
	}`

	var state DashboardState
	require.NoError(t, json.Unmarshal([]byte(raw), &state))

	assert.Equal(t, int64(12345), state.UserStatus.AvailablePoints)
	assert.Equal(t, Level2, state.UserStatus.LevelInfo.ActiveLevel)
	assert.Equal(t, "Xbox Gift Card", state.UserStatus.RedeemGoal.Title)

	require.Len(t, state.DailySetPromotions["08/28/2026"], 1)
	daily := state.DailySetPromotions["08/28/2026"][0]
	assert.True(t, daily.IsDailySet())
	assert.False(t, daily.Locked())

	require.Len(t, state.MorePromotions, 1)
	assert.True(t, state.MorePromotions[0].Locked())
	assert.False(t, state.MorePromotions[0].IsDailySet())
}

func TestRemainingSearchesTotal(t *testing.T) {
	r := RemainingSearches{Desktop: 6, Mobile: 20}
	assert.Equal(t, int64(26), r.Total())
}
