package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAppendWritesHeaderOnce(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t), t.TempDir())

	require.NoError(t, store.Append("user@example.com", Record{Date: "08/27/2026", Points: 1200, Delta: 150}))
	require.NoError(t, store.Append("user@example.com", Record{Date: "08/28/2026", Points: 1350, Delta: 150}))

	raw, err := os.ReadFile(filepath.Join(store.dir, "user@example.com"+csvSuffix))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Earned Points,Points Difference", lines[0])
	assert.Equal(t, "08/27/2026,1200,150", lines[1])
	assert.Equal(t, "08/28/2026,1350,150", lines[2])
}

func TestAppendKeepsAccountsSeparate(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t), t.TempDir())

	require.NoError(t, store.Append("a@example.com", Record{Date: "08/28/2026", Points: 10, Delta: 10}))
	require.NoError(t, store.Append("b@example.com", Record{Date: "08/28/2026", Points: 20, Delta: 20}))

	entries, err := os.ReadDir(store.dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPreviousPointsRoundTrip(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t), t.TempDir())

	points, err := store.PreviousPoints()
	require.NoError(t, err)
	assert.Empty(t, points)

	want := map[string]int64{"a@example.com": 1200, "b@example.com": 95}
	require.NoError(t, store.SavePreviousPoints(want))

	got, err := store.PreviousPoints()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPreviousPointsRejectsCorruptFile(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t), t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, previousPointsFile), []byte("{nope"), 0o644))

	_, err := store.PreviousPoints()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding previous points")
}
