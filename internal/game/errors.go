package game

import "errors"

// Kind classifies an error for callers that surface failures to clients.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindStateConflict
	KindRuleViolation
	KindDelivery
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindStateConflict:
		return "state_conflict"
	case KindRuleViolation:
		return "rule_violation"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Error is a classified game failure with a stable machine-readable code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Input validation
var (
	ErrInvalidRequester = newError(KindInvalidInput, "invalid_requester", "requester id is required")
	ErrInvalidSession   = newError(KindInvalidInput, "invalid_session", "session id is required")
	ErrInvalidName      = newError(KindInvalidInput, "invalid_name", "display name must be 1-32 characters")
	ErrInvalidClaim     = newError(KindInvalidInput, "invalid_claim", "invalid claim")
)

// State conflicts
var (
	ErrSessionNotFound        = newError(KindStateConflict, "session_not_found", "session not found")
	ErrSessionAlreadyStarted  = newError(KindStateConflict, "session_already_started", "session already started")
	ErrSessionFinished        = newError(KindStateConflict, "session_finished", "session already finished")
	ErrAlreadyInActiveSession = newError(KindStateConflict, "already_in_active_session", "already in an active session")
	ErrGameNotStarted         = newError(KindStateConflict, "game_not_started", "game not started yet")
	ErrNotParticipant         = newError(KindStateConflict, "not_participant", "not a participant in this session")
	ErrNotEnoughPlayers       = newError(KindStateConflict, "not_enough_players", "at least two players are required")
	ErrTurnUnavailable        = newError(KindStateConflict, "turn_unavailable", "no turn can be derived from history")
)

// Turn and rule violations
var (
	ErrNotYourTurn           = newError(KindRuleViolation, "not_your_turn", "not your turn")
	ErrClaimTooLow           = newError(KindRuleViolation, "claim_too_low", "claim quantity must exceed the previous claim")
	ErrCanOnlyChallengeClaim = newError(KindRuleViolation, "can_only_challenge_claim", "can only challenge an outstanding claim")
)

// Delivery
var (
	ErrRecipientUnavailable = newError(KindDelivery, "recipient_unavailable", "recipient has no live connection")
)

// KindOf reports the kind of the first classified error in err's tree.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// CodeOf reports the code of the first classified error in err's tree.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "internal"
}
