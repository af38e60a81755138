package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	week := WindowStart(TimeWindowWeek, now)
	require.NotNil(t, week)
	assert.Equal(t, now.AddDate(0, 0, -7), *week)

	month := WindowStart(TimeWindowMonth, now)
	require.NotNil(t, month)
	assert.Equal(t, time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC), *month)

	year := WindowStart(TimeWindowYear, now)
	require.NotNil(t, year)
	assert.Equal(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), *year)

	assert.Nil(t, WindowStart(TimeWindowAllTime, now))
}
