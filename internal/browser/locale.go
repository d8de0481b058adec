package browser

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// geoProbeURL answers with the caller's IP-derived language and country.
const geoProbeURL = "https://ipapi.co/json/"

// Locale is the resolved language/country pair applied to a session.
type Locale struct {
	Language string
	Country  string
}

// LocaleResolver resolves the session locale through a fixed precedence
// chain: explicit caller value, per-account override, config default,
// process environment, then an IP geolocation probe, falling back to en/US
// when everything else fails.
type LocaleResolver struct {
	logger   *zap.Logger
	client   *http.Client
	probeURL string
}

func NewLocaleResolver(logger *zap.Logger) *LocaleResolver {
	return &LocaleResolver{
		logger:   logger.Named("locale"),
		client:   &http.Client{Timeout: 10 * time.Second},
		probeURL: geoProbeURL,
	}
}

// Resolve fills in the language and country, trying each source in order.
// explicitLang/explicitGeo are values the operator passed directly and beat
// everything; accountLang/accountGeo are the per-account overrides and
// cfgLang/cfgGeo the config-level defaults. Either part may be resolved from
// a different source.
func (r *LocaleResolver) Resolve(ctx context.Context, explicitLang, explicitGeo, accountLang, accountGeo, cfgLang, cfgGeo string) Locale {
	loc := Locale{
		Language: firstNonEmpty(explicitLang, accountLang, cfgLang),
		Country:  firstNonEmpty(explicitGeo, accountGeo, cfgGeo),
	}

	if loc.Language == "" {
		loc.Language = processLanguage()
	}

	if loc.Language == "" || loc.Country == "" {
		probed := r.probe(ctx)
		if loc.Language == "" {
			loc.Language = probed.Language
		}
		if loc.Country == "" {
			loc.Country = probed.Country
		}
	}

	if loc.Language == "" {
		loc.Language = "en"
	}
	if loc.Country == "" {
		loc.Country = "US"
	}

	r.logger.Debug("Resolved session locale",
		zap.String("language", loc.Language),
		zap.String("country", loc.Country),
	)
	return loc
}

// processLanguage extracts the language tag from the LANG environment
// variable, e.g. "en_US.UTF-8" yields "en".
func processLanguage() string {
	lang := os.Getenv("LANG")
	if lang == "" {
		return ""
	}
	lang = strings.SplitN(lang, ".", 2)[0]
	lang = strings.SplitN(lang, "_", 2)[0]
	if lang == "C" || lang == "POSIX" {
		return ""
	}
	return lang
}

// probe asks the geolocation endpoint for the IP's language and country.
// Failures are logged and yield an empty locale; the caller falls back.
func (r *LocaleResolver) probe(ctx context.Context) Locale {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.probeURL, nil)
	if err != nil {
		return Locale{}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("Geolocation probe failed", zap.Error(err))
		return Locale{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("Geolocation probe rejected", zap.Int("status", resp.StatusCode))
		return Locale{}
	}

	var body struct {
		Languages string `json:"languages"`
		Country   string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.logger.Warn("Geolocation probe returned malformed body", zap.Error(err))
		return Locale{}
	}

	loc := Locale{Country: body.Country}
	if body.Languages != "" {
		// "en-US,en" -> "en"
		first := strings.SplitN(body.Languages, ",", 2)[0]
		loc.Language = strings.SplitN(first, "-", 2)[0]
	}
	return loc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
