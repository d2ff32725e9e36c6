package interest

import (
	"time"

	"cofound/internal/domain"
)

type Action string

const (
	ActionShortlist Action = "shortlist"
	ActionPass      Action = "pass"
	ActionWithdraw  Action = "withdraw"
)

var transitions = map[Status]map[Action]Status{
	StatusInterested: {
		ActionShortlist: StatusShortlisted,
		ActionPass:      StatusPassed,
		ActionWithdraw:  StatusWithdrawn,
	},
	StatusShortlisted: {},
	StatusPassed:      {},
	StatusWithdrawn:   {},
}

func Next(from Status, a Action) (Status, bool) {
	to, ok := transitions[from][a]
	return to, ok
}

// Apply performs a validated transition and stamps the matching timestamp.
// Shortlisting is the only action that produces a mutual match.
func Apply(i *Interest, a Action, now time.Time) error {
	to, ok := Next(i.Status, a)
	if !ok {
		return domain.ErrInvalidTransition
	}
	t := now.UTC()
	switch a {
	case ActionShortlist:
		i.ShortlistedAt = &t
		i.MatchedAt = &t
		i.IsMutualMatch = true
	case ActionPass:
		i.PassedAt = &t
	case ActionWithdraw:
		i.WithdrawnAt = &t
	}
	i.Status = to
	i.UpdatedAt = t
	return nil
}
