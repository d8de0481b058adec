package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) *LocaleResolver {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r := NewLocaleResolver(zaptest.NewLogger(t))
	r.client = srv.Client()
	r.probeURL = srv.URL
	return r
}

func TestResolveExplicitValuesBeatAccount(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("probe must not be called when overrides are set")
	})

	// An operator-supplied value outranks the account's stored locale.
	loc := r.Resolve(context.Background(), "de", "DE", "fr", "FR", "es", "ES")
	assert.Equal(t, Locale{Language: "de", Country: "DE"}, loc)

	// Each part resolves independently.
	loc = r.Resolve(context.Background(), "de", "", "fr", "FR", "", "")
	assert.Equal(t, Locale{Language: "de", Country: "FR"}, loc)
}

func TestResolveAccountOverridesWin(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("probe must not be called when overrides are set")
	})

	loc := r.Resolve(context.Background(), "", "", "fr", "FR", "de", "DE")
	assert.Equal(t, Locale{Language: "fr", Country: "FR"}, loc)
}

func TestResolveConfigDefaultsBeforeProbe(t *testing.T) {
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("probe must not be called when config defaults are set")
	})

	loc := r.Resolve(context.Background(), "", "", "", "", "de", "DE")
	assert.Equal(t, Locale{Language: "de", Country: "DE"}, loc)
}

func TestResolveProbeFillsGaps(t *testing.T) {
	t.Setenv("LANG", "")
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"languages":"pt-BR,pt","country":"BR"}`))
	})

	loc := r.Resolve(context.Background(), "", "", "", "", "", "")
	assert.Equal(t, Locale{Language: "pt", Country: "BR"}, loc)
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	t.Setenv("LANG", "")
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	loc := r.Resolve(context.Background(), "", "", "", "", "", "")
	assert.Equal(t, Locale{Language: "en", Country: "US"}, loc)
}

func TestResolveUsesProcessLocale(t *testing.T) {
	t.Setenv("LANG", "it_IT.UTF-8")
	r := newTestResolver(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"languages":"it-IT,it","country":"IT"}`))
	})

	loc := r.Resolve(context.Background(), "", "", "", "", "", "")
	assert.Equal(t, "it", loc.Language)
	assert.Equal(t, "IT", loc.Country)
}

func TestProcessLanguageIgnoresPosixLocales(t *testing.T) {
	t.Setenv("LANG", "C.UTF-8")
	assert.Empty(t, processLanguage())

	t.Setenv("LANG", "en_GB.UTF-8")
	assert.Equal(t, "en", processLanguage())
}

func TestAcceptLanguage(t *testing.T) {
	assert.Equal(t, "en-US,en;q=0.9", acceptLanguage(Locale{Language: "en", Country: "US"}))
}
