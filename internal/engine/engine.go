// Package engine runs Liar's Dice sessions.
//
// Every operation validates against the current session, mutates it, and asks
// the messenger to record and deliver the resulting events, all while holding
// that session's lock. Validation failures leave the session untouched.
// Delivery failures while dealing a round are reported but never undo the
// deal.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/messenger"
	"github.com/lox/liarsdice/internal/sessionid"
	"github.com/lox/liarsdice/internal/store"
)

const maxNameLength = 32

// Engine is the game state machine.
type Engine struct {
	store        *store.Store
	messenger    *messenger.Messenger
	rng          game.Rand
	logger       *log.Logger
	newID        func() string
	startingDice int
	minPlayers   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides how session ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithStartingDice sets how many dice each participant joins with.
func WithStartingDice(n int) Option {
	return func(e *Engine) { e.startingDice = n }
}

// WithMinPlayers sets how many participants a session needs to start.
func WithMinPlayers(n int) Option {
	return func(e *Engine) { e.minPlayers = n }
}

// New creates an engine. rng must be safe for concurrent use when sessions
// are driven from several goroutines.
func New(st *store.Store, m *messenger.Messenger, rng game.Rand, logger *log.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		messenger:    m,
		rng:          rng,
		logger:       logger.WithPrefix("engine"),
		newID:        sessionid.Generate,
		startingDice: game.StartingDice,
		minPlayers:   2,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func validateRequester(id string) error {
	if strings.TrimSpace(id) == "" {
		return game.ErrInvalidRequester
	}
	return nil
}

func validateSession(id string) error {
	if strings.TrimSpace(id) == "" {
		return game.ErrInvalidSession
	}
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > maxNameLength {
		return "", game.ErrInvalidName
	}
	return name, nil
}

// CreateSession opens a new lobby and returns its id. The requester is not
// seated; they join like everyone else.
func (e *Engine) CreateSession(requesterID string) (string, error) {
	if err := validateRequester(requesterID); err != nil {
		return "", err
	}
	if current, ok := e.store.ActiveSession(requesterID); ok {
		return "", fmt.Errorf("%w: %s", game.ErrAlreadyInActiveSession, current)
	}

	id := e.newID()
	if err := e.store.Create(id); err != nil {
		return "", err
	}

	e.logger.Info("Session created", "session", id, "requester", requesterID)
	return id, nil
}

// JoinSession seats the requester in a lobby and returns the participants
// who were already there.
func (e *Engine) JoinSession(sessionID, requesterID, displayName string) ([]game.PlayerView, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	if err := validateRequester(requesterID); err != nil {
		return nil, err
	}
	name, err := normalizeName(displayName)
	if err != nil {
		return nil, err
	}

	var others []game.PlayerView
	err = e.store.Update(sessionID, func(s *game.Session) error {
		if s.Started {
			return game.ErrSessionAlreadyStarted
		}
		if _, ok := s.Participant(requesterID); ok {
			return fmt.Errorf("%w: %s", game.ErrAlreadyInActiveSession, s.ID)
		}
		if err := e.store.Reserve(requesterID, s.ID); err != nil {
			return err
		}

		others = s.Views("")
		p := game.NewParticipant(requesterID, name, e.startingDice)
		s.Participants = append(s.Participants, p)
		e.messenger.Broadcast(s, game.PlayerJoined{Player: p.View()})

		e.logger.Info("Player joined", "session", s.ID, "player", requesterID, "name", name, "players", len(s.Participants))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return others, nil
}

// StartSession closes the lobby and deals the first round. A delivery error
// means the game has started but some players did not receive their dice.
func (e *Engine) StartSession(sessionID, requesterID string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := validateRequester(requesterID); err != nil {
		return err
	}

	return e.store.Update(sessionID, func(s *game.Session) error {
		if _, ok := s.Participant(requesterID); !ok {
			return game.ErrNotParticipant
		}
		if s.Started {
			return game.ErrSessionAlreadyStarted
		}
		if len(s.Participants) < e.minPlayers {
			return fmt.Errorf("%w: have %d", game.ErrNotEnoughPlayers, len(s.Participants))
		}

		s.Started = true
		e.messenger.Broadcast(s, game.GameStarted{})
		e.logger.Info("Game started", "session", s.ID, "players", len(s.Participants))

		return e.startRound(s)
	})
}

// startRound rerolls every active participant and privately deals each their
// roll. The rerolls stand even if some deliveries fail.
func (e *Engine) startRound(s *game.Session) error {
	starter, err := game.StartingPlayer(s, e.rng)
	if err != nil {
		return err
	}

	active := s.Active()
	for _, p := range active {
		p.CurrentRoll = game.RollDice(e.rng, p.DiceCount)
	}

	var errs []error
	for _, p := range active {
		if _, err := e.messenger.Unicast(s, p.UserID, game.RoundStarted{
			Player:           p.Private(),
			StartingPlayerID: starter,
		}); err != nil {
			errs = append(errs, err)
		}
	}

	e.logger.Info("Round started", "session", s.ID, "starter", starter, "players", len(active))
	if err := errors.Join(errs...); err != nil {
		e.logger.Warn("Round start partially delivered", "session", s.ID, "failed", len(errs))
		return fmt.Errorf("deal round: %w", err)
	}
	return nil
}

// SubmitClaim applies a move from playerID: a raise, or a challenge of the
// outstanding claim.
func (e *Engine) SubmitClaim(sessionID, playerID string, move game.Move) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := validateRequester(playerID); err != nil {
		return err
	}
	switch m := move.(type) {
	case game.Raise:
		if err := m.Validate(); err != nil {
			return err
		}
	case game.CallCheat, game.CallExact:
	default:
		return fmt.Errorf("%w: unknown move %T", game.ErrInvalidClaim, move)
	}

	return e.store.Update(sessionID, func(s *game.Session) error {
		if s.Finished {
			return game.ErrSessionFinished
		}
		if !s.Started {
			return game.ErrGameNotStarted
		}

		turn, err := game.DeriveTurn(s.History)
		if err != nil {
			return err
		}
		if turn != playerID {
			return fmt.Errorf("%w: waiting on %s", game.ErrNotYourTurn, turn)
		}

		prior, hasPrior := game.LastClaim(s.History)

		switch m := move.(type) {
		case game.Raise:
			if hasPrior && m.Quantity <= prior.Quantity {
				return fmt.Errorf("%w: must exceed %d", game.ErrClaimTooLow, prior.Quantity)
			}
			return e.raise(s, playerID, m)
		case game.CallCheat:
			if !hasPrior {
				return game.ErrCanOnlyChallengeClaim
			}
			return e.resolveChallenge(s, playerID, prior, game.ChallengeCheat)
		default:
			if !hasPrior {
				return game.ErrCanOnlyChallengeClaim
			}
			return e.resolveChallenge(s, playerID, prior, game.ChallengeExact)
		}
	})
}

func (e *Engine) raise(s *game.Session, playerID string, r game.Raise) error {
	next, err := game.NextPlayer(s.Participants, playerID)
	if err != nil {
		return err
	}

	e.messenger.Broadcast(s, game.Claim{
		Quantity:     r.Quantity,
		Value:        r.Value,
		ClaimantID:   playerID,
		NextPlayerID: next,
	})
	e.logger.Debug("Claim", "session", s.ID, "player", playerID, "quantity", r.Quantity, "value", r.Value, "next", next)
	return nil
}

// resolveChallenge settles a challenge against the claimant's own dice.
//
// A cheat call wins when the claim overstates the count; an exact call wins
// when the claim matches it. The losing side gives up the challenge's
// penalty in dice. originalClaimWasTrue is false exactly when the claimant
// loses.
func (e *Engine) resolveChallenge(s *game.Session, accuserID string, claim game.Claim, kind game.ChallengeKind) error {
	accuser, ok := s.Participant(accuserID)
	if !ok {
		return game.ErrNotParticipant
	}
	claimant, ok := s.Participant(claim.ClaimantID)
	if !ok {
		return fmt.Errorf("%w: claimant %s", game.ErrNotParticipant, claim.ClaimantID)
	}

	actual := claimant.Count(claim.Value)
	var claimantLoses bool
	switch kind {
	case game.ChallengeExact:
		claimantLoses = claim.Quantity == actual
	default:
		claimantLoses = claim.Quantity > actual
	}

	loser := accuser
	if claimantLoses {
		loser = claimant
	}
	penalty := kind.Penalty()
	eliminated := loser.LoseDice(penalty)
	if eliminated {
		e.store.Release(loser.UserID, s.ID)
	}

	e.messenger.Broadcast(s, game.RoundResult{
		Accuser:              accuser.View(),
		Accused:              claimant.View(),
		Claim:                claim,
		Challenge:            kind,
		DiceLost:             penalty,
		OriginalClaimWasTrue: !claimantLoses,
		LoserEliminated:      eliminated,
	})
	e.logger.Info("Challenge resolved",
		"session", s.ID,
		"challenge", kind,
		"accuser", accuser.UserID,
		"accused", claimant.UserID,
		"actual", actual,
		"loser", loser.UserID,
		"eliminated", eliminated)

	if active := s.Active(); len(active) == 1 {
		winner := active[0]
		e.messenger.Broadcast(s, game.GameOver{Winner: winner.View()})
		s.Finished = true
		e.store.Release(winner.UserID, s.ID)
		e.logger.Info("Game over", "session", s.ID, "winner", winner.UserID)
		return nil
	}

	return e.startRound(s)
}

// History returns the events the requester may see, for reconnect and replay.
func (e *Engine) History(sessionID, requesterID string) ([]game.Event, error) {
	if err := validateSession(sessionID); err != nil {
		return nil, err
	}
	if err := validateRequester(requesterID); err != nil {
		return nil, err
	}

	var history []game.Event
	err := e.store.View(sessionID, func(s *game.Session) error {
		if _, ok := s.Participant(requesterID); !ok {
			return game.ErrNotParticipant
		}
		history = s.HistoryFor(requesterID)
		return nil
	})
	return history, err
}

// ChangeName renames a participant and tells everyone.
func (e *Engine) ChangeName(sessionID, requesterID, newName string) error {
	if err := validateSession(sessionID); err != nil {
		return err
	}
	if err := validateRequester(requesterID); err != nil {
		return err
	}
	name, err := normalizeName(newName)
	if err != nil {
		return err
	}

	return e.store.Update(sessionID, func(s *game.Session) error {
		p, ok := s.Participant(requesterID)
		if !ok {
			return game.ErrNotParticipant
		}
		p.DisplayName = name
		e.messenger.Broadcast(s, game.NameChanged{PlayerID: requesterID, Name: name})
		return nil
	})
}

// PublicState returns what any observer may know about a session.
func (e *Engine) PublicState(sessionID string) (game.PublicState, error) {
	var state game.PublicState
	err := e.store.View(sessionID, func(s *game.Session) error {
		state = s.PublicState()
		return nil
	})
	return state, err
}
