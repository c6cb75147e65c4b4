package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/liarsdice/internal/game"
	"github.com/lox/liarsdice/internal/protocol"
)

var ErrDisconnected = errors.New("disconnected before game over")

// Conn is the part of client.Client a runner needs.
type Conn interface {
	Send(req protocol.Request) (string, error)
	Frames() <-chan protocol.Frame
	ParticipantID() string
}

// Runner joins a session and plays it to the end with a strategy.
type Runner struct {
	conn      Conn
	strategy  Strategy
	sessionID string
	name      string
	startAt   int
	logger    *log.Logger

	self      string
	pending   map[string]string
	dice      map[string]int
	roll      []int
	claim     *game.Claim
	startSent bool
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// StartWhen makes the runner start the session once n players have joined.
func StartWhen(n int) RunnerOption {
	return func(r *Runner) { r.startAt = n }
}

// NewRunner creates a runner for sessionID playing as name
func NewRunner(conn Conn, strategy Strategy, sessionID, name string, logger *log.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		conn:      conn,
		strategy:  strategy,
		sessionID: sessionID,
		name:      name,
		logger:    logger.WithPrefix("bot").With("name", name),
		self:      conn.ParticipantID(),
		pending:   make(map[string]string),
		dice:      make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays until the game ends and returns the winner's id.
func (r *Runner) Run(ctx context.Context) (string, error) {
	if err := r.send(protocol.Request{
		Type:        protocol.TypeJoin,
		SessionID:   r.sessionID,
		DisplayName: r.name,
	}); err != nil {
		return "", err
	}

	frames := r.conn.Frames()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case f, ok := <-frames:
			if !ok {
				return "", ErrDisconnected
			}
			winner, done, err := r.handle(f)
			if err != nil || done {
				return winner, err
			}
		}
	}
}

func (r *Runner) send(req protocol.Request) error {
	req.SessionID = r.sessionID
	id, err := r.conn.Send(req)
	if err != nil {
		return err
	}
	r.pending[id] = req.Type
	return nil
}

func (r *Runner) handle(f protocol.Frame) (winner string, done bool, err error) {
	switch {
	case f.IsResult():
		return "", false, r.handleResult(f.AsResult())
	case f.IsEvent():
		ev, err := protocol.ToGame(f.AsEvent())
		if err != nil {
			return "", false, err
		}
		return r.handleEvent(ev)
	}
	return "", false, nil
}

func (r *Runner) handleResult(res protocol.Result) error {
	typ := r.pending[res.RequestID]
	delete(r.pending, res.RequestID)

	if !res.Success {
		var code, kind string
		if res.Error != nil {
			code, kind = res.Error.Code, res.Error.Kind
		}
		// Another player may have started first
		if typ == protocol.TypeStart && code == game.CodeOf(game.ErrSessionAlreadyStarted) {
			return nil
		}
		// The move was applied; only some recipients missed the deal.
		if kind == game.KindDelivery.String() && (typ == protocol.TypeStart || typ == protocol.TypeClaim) {
			r.logger.Warn("Move applied with partial delivery", "type", typ, "code", code)
			return nil
		}
		return fmt.Errorf("%s rejected: %s", typ, code)
	}

	if typ == protocol.TypeJoin {
		var v protocol.JoinedValue
		if err := json.Unmarshal(res.Value, &v); err != nil {
			return fmt.Errorf("decode join result: %w", err)
		}
		for _, p := range v.Players {
			r.dice[p.UserID] = p.DiceCount
		}
		return r.maybeStart()
	}
	return nil
}

func (r *Runner) handleEvent(ev game.Event) (string, bool, error) {
	switch p := ev.Payload.(type) {
	case game.PlayerJoined:
		r.dice[p.Player.UserID] = p.Player.DiceCount
		return "", false, r.maybeStart()

	case game.RoundStarted:
		r.roll = p.Player.CurrentRoll
		r.dice[r.self] = p.Player.DiceCount
		r.claim = nil
		if p.StartingPlayerID == r.self {
			return "", false, r.play()
		}

	case game.Claim:
		r.claim = &p
		if p.NextPlayerID == r.self {
			return "", false, r.play()
		}

	case game.RoundResult:
		r.dice[p.Accuser.UserID] = p.Accuser.DiceCount
		r.dice[p.Accused.UserID] = p.Accused.DiceCount
		r.claim = nil

	case game.GameOver:
		r.logger.Info("Game over", "winner", p.Winner.DisplayName, "won", p.Winner.UserID == r.self)
		return p.Winner.UserID, true, nil
	}
	return "", false, nil
}

func (r *Runner) maybeStart() error {
	if r.startAt == 0 || r.startSent || len(r.dice) < r.startAt {
		return nil
	}
	r.startSent = true
	r.logger.Debug("Starting session", "players", len(r.dice))
	return r.send(protocol.Request{Type: protocol.TypeStart})
}

func (r *Runner) play() error {
	v := View{Roll: r.roll, Claim: r.claim}
	if r.claim != nil {
		v.ClaimantDice = r.dice[r.claim.ClaimantID]
	}

	d := r.strategy.Decide(v)
	r.logger.Debug("Bot decision made", "move", fmt.Sprintf("%T", d.Move), "reasoning", d.Reasoning)
	return r.send(protocol.Request{Type: protocol.TypeClaim, Claim: protocol.ClaimFromMove(d.Move)})
}
