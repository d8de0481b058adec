package rewards

import (
	"strings"

	"github.com/xkilldash9x/rewards-cli/api/schemas"
)

// ActivityKind selects the completion protocol for one activity.
type ActivityKind int

const (
	// KindSkip marks activities that are done, worthless, or excluded.
	KindSkip ActivityKind = iota
	// KindRedirectSearch types a canned query into the search box.
	KindRedirectSearch
	// KindPoll answers a two-option survey.
	KindPoll
	// KindPassive is credited by the page visit alone.
	KindPassive
	// KindABC is the multi-step multiple-choice flow.
	KindABC
	// KindQuiz is the start-quiz flow with per-question answer metadata.
	KindQuiz
	// KindThisOrThat is the ten-round two-option quiz verified by checksum.
	KindThisOrThat
)

func (k ActivityKind) String() string {
	switch k {
	case KindSkip:
		return "skip"
	case KindRedirectSearch:
		return "redirect-search"
	case KindPoll:
		return "poll"
	case KindPassive:
		return "passive"
	case KindABC:
		return "abc"
	case KindQuiz:
		return "quiz"
	case KindThisOrThat:
		return "this-or-that"
	}
	return "unknown"
}

// Classification is the resolved protocol plus its parameters.
type Classification struct {
	Kind ActivityKind
	// Query is the search text for KindRedirectSearch.
	Query string
}

// activityQueries maps known activity titles to the search query that
// satisfies them. Titles are US English; other markets fall through to the
// passive handler.
var activityQueries = map[string]string{
	"Black Friday shopping":            "black friday deals",
	"Discover open job roles":          "jobs at microsoft",
	"Expand your vocabulary":           "define demure",
	"Find places to stay":              "hotels rome italy",
	"Find somewhere new to explore":    "directions to new york",
	"Gaming time":                      "vampire survivors video game",
	"Get your shopping done faster":    "new iphone",
	"Houses near you":                  "apartments manhattan",
	"How's the economy?":               "sp 500",
	"Learn to cook a new recipe":       "how cook pierogi",
	"Let's watch that movie again!":    "aliens movie",
	"Plan a quick getaway":             "flights nyc to paris",
	"Prepare for the weather":          "weather tomorrow",
	"Quickly convert your money":       "convert 374 usd to yen",
	"Search the lyrics of a song":      "black sabbath supernaut lyrics",
	"Stay on top of the elections":     "election news latest",
	"Too tired to cook tonight?":       "Pizza Hut near me",
	"Translate anything":               "translate pencil sharpener to spanish",
	"What time is it?":                 "china time",
	"What's for Thanksgiving dinner?":  "pumpkin pie recipe",
	"Who won?":                         "braves score",
	"You can track your package":       "usps tracking",
}

// CleanTitle strips the invisible characters activity titles are padded
// with so they compare equal to configured and tabled titles.
func CleanTitle(title string) string {
	title = strings.ReplaceAll(title, "​", "")
	return strings.ReplaceAll(title, " ", " ")
}

// Classify resolves the completion protocol for an activity. The rules are
// ordered; the first match wins.
func Classify(a schemas.Activity, ignore []string) Classification {
	title := CleanTitle(a.Title)

	if a.Complete || a.PointProgressMax == 0 || a.Locked() {
		return Classification{Kind: KindSkip}
	}
	for _, ig := range ignore {
		if title == ig {
			return Classification{Kind: KindSkip}
		}
	}

	if query, ok := activityQueries[title]; ok {
		return Classification{Kind: KindRedirectSearch, Query: query}
	}
	if strings.Contains(strings.ToLower(title), "poll") {
		return Classification{Kind: KindPoll}
	}

	switch a.PromotionType {
	case "urlreward":
		return Classification{Kind: KindPassive}
	case "quiz":
		switch {
		case a.PointProgressMax == 10:
			return Classification{Kind: KindABC}
		case a.PointProgressMax == 30 || a.PointProgressMax == 40:
			return Classification{Kind: KindQuiz}
		case a.PointProgressMax == 50:
			return Classification{Kind: KindThisOrThat}
		}
	}

	return Classification{Kind: KindPassive}
}
