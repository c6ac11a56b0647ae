package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func TestDateWindow_Default(t *testing.T) {
	from, to, err := dateWindow(now, 0, "", "")
	require.NoError(t, err)
	assert.Equal(t, now, to)
	assert.Equal(t, time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC), from)
}

func TestDateWindow_Months(t *testing.T) {
	from, to, err := dateWindow(now, 1, "", "")
	require.NoError(t, err)
	assert.Equal(t, now, to)
	assert.Equal(t, time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC), from)
}

func TestDateWindow_Explicit(t *testing.T) {
	from, to, err := dateWindow(now, 0, "2026-01-01", "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestDateWindow_StartOnly(t *testing.T) {
	from, to, err := dateWindow(now, 0, "2026-01-01", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, now, to)
}

func TestDateWindow_MonthsConflicts(t *testing.T) {
	_, _, err := dateWindow(now, 2, "2026-01-01", "")
	assert.Error(t, err)

	_, _, err = dateWindow(now, 2, "", "2026-02-01")
	assert.Error(t, err)
}

func TestDateWindow_BadDates(t *testing.T) {
	_, _, err := dateWindow(now, 0, "01.01.2026", "")
	assert.Error(t, err)

	_, _, err = dateWindow(now, 0, "", "2026-1-1")
	assert.Error(t, err)
}
