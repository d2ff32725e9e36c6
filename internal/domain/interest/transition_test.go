package interest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cofound/internal/domain"
)

func TestApply_FromInterested(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		action Action
		want   Status
		check  func(t *testing.T, i Interest)
	}{
		{ActionShortlist, StatusShortlisted, func(t *testing.T, i Interest) {
			assert.True(t, i.IsMutualMatch)
			require.NotNil(t, i.MatchedAt)
			require.NotNil(t, i.ShortlistedAt)
			assert.Equal(t, now, *i.MatchedAt)
		}},
		{ActionPass, StatusPassed, func(t *testing.T, i Interest) {
			assert.False(t, i.IsMutualMatch)
			require.NotNil(t, i.PassedAt)
		}},
		{ActionWithdraw, StatusWithdrawn, func(t *testing.T, i Interest) {
			assert.False(t, i.IsMutualMatch)
			require.NotNil(t, i.WithdrawnAt)
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			i := Interest{Status: StatusInterested}
			require.NoError(t, Apply(&i, tt.action, now))
			assert.Equal(t, tt.want, i.Status)
			tt.check(t, i)
		})
	}
}

func TestApply_TerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []Status{StatusShortlisted, StatusPassed, StatusWithdrawn} {
		for _, a := range []Action{ActionShortlist, ActionPass, ActionWithdraw} {
			i := Interest{Status: from}
			err := Apply(&i, a, time.Now())
			assert.ErrorIs(t, err, domain.ErrBadRequest, "from=%s action=%s", from, a)
			assert.Equal(t, from, i.Status)
			assert.True(t, from.Terminal())
		}
	}
}

func TestApply_OnlyShortlistSetsMutualMatch(t *testing.T) {
	for _, a := range []Action{ActionPass, ActionWithdraw} {
		i := Interest{Status: StatusInterested}
		require.NoError(t, Apply(&i, a, time.Now()))
		assert.False(t, i.IsMutualMatch)
		assert.Nil(t, i.MatchedAt)
	}
}
