package conversation

import (
	"math/rand/v2"
	"time"

	"cofound/internal/domain"
)

var transitions = map[Status][]Status{
	StatusActive:   {StatusArchived, StatusBlocked},
	StatusArchived: {StatusActive, StatusBlocked},
	StatusBlocked:  nil,
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func Transition(c *Conversation, to Status, now time.Time) error {
	if !CanTransition(c.Status, to) {
		return domain.ErrInvalidTransition
	}
	c.Status = to
	c.UpdatedAt = now.UTC()
	return nil
}

var iceBreakers = []string{
	"What got you excited about this opening in the first place?",
	"What does a great first month working together look like to you?",
	"What is one thing you would want to build together in the next 30 days?",
	"How do you prefer to communicate day to day: async, calls, or both?",
	"What is the hardest problem you have shipped a solution for?",
	"Where do you see this product in a year, and what role do you want in it?",
}

// PickIceBreaker picks uniformly from the prompt set using pick(n) in [0,n).
// A nil pick uses math/rand/v2.
func PickIceBreaker(pick func(n int) int) string {
	if pick == nil {
		pick = rand.IntN
	}
	return iceBreakers[pick(len(iceBreakers))]
}
