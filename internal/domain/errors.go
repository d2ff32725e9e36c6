package domain

import "errors"

// Error kinds. Every error returned by the workflow engine unwraps to one of these.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// ErrDailyLimitReached is a bad request that clients render as an upgrade prompt.
var ErrDailyLimitReached = newError(ErrBadRequest, "daily interest limit reached")

var (
	ErrUserNotFound         = newError(ErrNotFound, "user not found")
	ErrOpeningNotFound      = newError(ErrNotFound, "opening not found")
	ErrProfileNotFound      = newError(ErrNotFound, "builder profile not found")
	ErrInterestNotFound     = newError(ErrNotFound, "interest not found")
	ErrConversationNotFound = newError(ErrNotFound, "conversation not found")
	ErrMessageNotFound      = newError(ErrNotFound, "message not found")
	ErrTrialNotFound        = newError(ErrNotFound, "trial not found")

	ErrNotOpeningOwner       = newError(ErrForbidden, "caller does not own the opening")
	ErrNotInterestBuilder    = newError(ErrForbidden, "caller is not the interested builder")
	ErrNotParticipant        = newError(ErrForbidden, "caller is not a conversation participant")
	ErrNotMutualMatch        = newError(ErrForbidden, "interest is not a mutual match")
	ErrNotMatchParty         = newError(ErrForbidden, "caller is neither side of the checked pair")
	ErrRoleNotAllowed        = newError(ErrForbidden, "role not allowed for this operation")
	ErrInvalidInput          = newError(ErrBadRequest, "invalid input")
	ErrProfileIncomplete     = newError(ErrBadRequest, "builder profile is incomplete")
	ErrOpeningNotActive      = newError(ErrBadRequest, "opening is not active")
	ErrInvalidTransition     = newError(ErrBadRequest, "invalid status transition")
	ErrConversationNotActive = newError(ErrBadRequest, "conversation is not active")
	ErrSelfAcceptance        = newError(ErrBadRequest, "proposer cannot accept own trial")
	ErrSelfDecline           = newError(ErrBadRequest, "proposer cannot decline own trial; cancel it instead")
	ErrInvalidDuration       = newError(ErrBadRequest, "trial duration must be 7, 14 or 21 days")
	ErrInvalidRating         = newError(ErrBadRequest, "ratings must be between 1 and 5")

	ErrDuplicateInterest = newError(ErrConflict, "interest already exists for this opening")
	ErrDuplicateFeedback = newError(ErrConflict, "feedback already submitted")
	ErrLiveTrialExists   = newError(ErrConflict, "conversation already has a live trial")
)

// Kind reports the taxonomy kind of err, or ErrInternal when it has none.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrForbidden, ErrBadRequest, ErrConflict} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}
