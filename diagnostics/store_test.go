package diagnostics

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "diag.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, Failure{Mode: "advice", Stage: "extract", Kind: "parse", Reason: "no JSON object found", RawText: "I refuse.", CreatedAt: base}))
	require.NoError(t, s.Record(ctx, Failure{Mode: "final", Stage: "generate", Kind: "timeout", Reason: "slow", CreatedAt: base.Add(time.Minute)}))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "final", got[0].Mode)
	assert.Equal(t, "advice", got[1].Mode)
	assert.Equal(t, "I refuse.", got[1].RawText)
	assert.Equal(t, base, got[1].CreatedAt)
	assert.NotEmpty(t, got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Failure{Mode: "advice", Stage: "generate", Kind: "other", Reason: "x"}))
	}
	got, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecordTruncatesRawText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Failure{Mode: "advice", Stage: "extract", Kind: "parse", Reason: "long", RawText: strings.Repeat("a", maxRawText+100)}))
	got, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].RawText, maxRawText)
}

func TestRecordKeepsRawTextValidUTF8(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	raw := strings.Repeat("a", maxRawText-1) + "é"
	require.NoError(t, s.Record(ctx, Failure{Mode: "advice", Stage: "extract", Kind: "parse", Reason: "long", RawText: raw}))
	got, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, utf8.ValidString(got[0].RawText))
	assert.Equal(t, strings.Repeat("a", maxRawText-1), got[0].RawText)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc"},
		{"ab€", 4, "ab"},
		{"ab€", 5, "ab€"},
		{"€", 1, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.n), "truncate(%q, %d)", tt.in, tt.n)
	}
}

func TestRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	assert.NoError(t, r.Record(context.Background(), Failure{}))
}
