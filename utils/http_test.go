package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("TRUE", false))
	assert.True(t, ParseBool(" yes ", false))
	assert.False(t, ParseBool("0", true))
	assert.True(t, ParseBool("", true))
	assert.False(t, ParseBool("maybe", false))
}

func TestParseUserID(t *testing.T) {
	id, err := ParseUserID("42")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	id, err = ParseUserID("")
	require.NoError(t, err)
	assert.Zero(t, id)

	for _, raw := range []string{"0", "-1", "abc", "1.5"} {
		_, err := ParseUserID(raw)
		assert.ErrorIs(t, err, ErrInvalidID, raw)
	}
}

func TestParseUUID(t *testing.T) {
	want := uuid.New()
	got, err := ParseUUID(" " + want.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ParseUUID("123")
	assert.ErrorIs(t, err, ErrInvalidUUID)
}

func TestFormatTime(t *testing.T) {
	assert.Nil(t, FormatTime(nil))

	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 1, 14, 30, 0, 0, loc)
	got := FormatTime(&ts)
	require.NotNil(t, got)
	assert.Equal(t, "2024-03-01T12:30:00Z", *got)
}
