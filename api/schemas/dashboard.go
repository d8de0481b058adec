package schemas

// -- Dashboard State Models --
// The rewards landing page embeds a single JSON object ("dashboard") that is
// authoritative for points and per-activity progress. These types model the
// subset this tool consumes; unknown fields are ignored on decode so benign
// schema growth does not break the fetch boundary.

// RewardsLevel is the account tier enumeration. Only two levels exist; an
// unrecognized value is a schema change and must be treated as fatal.
type RewardsLevel string

const (
	Level1 RewardsLevel = "Level1"
	Level2 RewardsLevel = "Level2"
)

// DashboardState is the embedded dashboard object, read fresh on every fetch
// and never cached across calls.
type DashboardState struct {
	UserStatus         UserStatus            `json:"userStatus"`
	DailySetPromotions map[string][]Activity `json:"dailySetPromotions"`
	MorePromotions     []Activity            `json:"morePromotions"`
}

// UserStatus carries the account-level counters and goal.
type UserStatus struct {
	AvailablePoints int64      `json:"availablePoints"`
	LevelInfo       LevelInfo  `json:"levelInfo"`
	RedeemGoal      RedeemGoal `json:"redeemGoal"`
	Counters        Counters   `json:"counters"`
}

// LevelInfo holds the active reward tier.
type LevelInfo struct {
	ActiveLevel RewardsLevel `json:"activeLevel"`
}

// RedeemGoal is the user-selected redemption target.
type RedeemGoal struct {
	Price int64  `json:"price"`
	Title string `json:"title"`
}

// Counters groups the per-surface search progress counters.
type Counters struct {
	PCSearch     []Counter `json:"pcSearch"`
	MobileSearch []Counter `json:"mobileSearch"`
}

// Counter is one progress/max pair.
type Counter struct {
	PointProgress    int64 `json:"pointProgress"`
	PointProgressMax int64 `json:"pointProgressMax"`
}

// ActivityAttributes carries the loosely structured promotion metadata. Only
// the daily-set marker is interesting here.
type ActivityAttributes struct {
	DailySetDate string `json:"daily_set_date,omitempty"`
}

// Activity is one completable unit of work from either catalog. Activities
// are re-read from the dashboard on every enumeration; progress is never
// assumed stable across two fetches.
type Activity struct {
	Title            string             `json:"title"`
	Complete         bool               `json:"complete"`
	PointProgress    int64              `json:"pointProgress"`
	PointProgressMax int64              `json:"pointProgressMax"`
	PromotionType    string             `json:"promotionType"`
	LockStatus       string             `json:"exclusiveLockedFeatureStatus"`
	Attributes       ActivityAttributes `json:"attributes"`
}

// IsDailySet reports whether the activity belongs to the dated daily set.
func (a Activity) IsDailySet() bool {
	return a.Attributes.DailySetDate != ""
}

// Locked reports whether the activity is behind a feature lock.
func (a Activity) Locked() bool {
	return a.LockStatus == "locked"
}

// RemainingSearches is the per-surface count of searches still worth points.
type RemainingSearches struct {
	Desktop int64
	Mobile  int64
}

// Total returns the combined remaining searches across both surfaces.
func (r RemainingSearches) Total() int64 {
	return r.Desktop + r.Mobile
}
