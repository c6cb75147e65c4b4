package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lox/liarsdice/internal/protocol"
)

var ErrNoSession = errors.New("no session: create or join one first")

// Help lists the commands the prompt accepts.
const Help = "create | join <session> <name> | start | claim <quantity> <face> | cheat | exact | history | rename <name> | quit"

// ParseCommand turns a prompt line into a request. current is the session
// the client is in, used when the command does not name one.
func ParseCommand(line, current string) (protocol.Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return protocol.Request{}, fmt.Errorf("empty command")
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	needSession := func() (string, error) {
		if current == "" {
			return "", ErrNoSession
		}
		return current, nil
	}

	switch cmd {
	case "create", "new":
		return protocol.Request{Type: protocol.TypeCreate}, nil

	case "join":
		if len(args) < 2 {
			return protocol.Request{}, fmt.Errorf("usage: join <session> <name>")
		}
		return protocol.Request{
			Type:        protocol.TypeJoin,
			SessionID:   args[0],
			DisplayName: strings.Join(args[1:], " "),
		}, nil

	case "start":
		sid, err := needSession()
		return protocol.Request{Type: protocol.TypeStart, SessionID: sid}, err

	case "history", "log":
		sid, err := needSession()
		return protocol.Request{Type: protocol.TypeHistory, SessionID: sid}, err

	case "claim", "raise", "bid":
		if len(args) != 2 {
			return protocol.Request{}, fmt.Errorf("usage: claim <quantity> <face>")
		}
		q, err := strconv.Atoi(args[0])
		if err != nil {
			return protocol.Request{}, fmt.Errorf("invalid quantity %q", args[0])
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return protocol.Request{}, fmt.Errorf("invalid face %q", args[1])
		}
		sid, err := needSession()
		return protocol.Request{
			Type:      protocol.TypeClaim,
			SessionID: sid,
			Claim:     &protocol.ClaimPayload{Quantity: q, Value: v},
		}, err

	case "cheat", "liar":
		sid, err := needSession()
		return protocol.Request{
			Type:      protocol.TypeClaim,
			SessionID: sid,
			Claim:     &protocol.ClaimPayload{IsCheatChallenge: true},
		}, err

	case "exact", "spot":
		sid, err := needSession()
		return protocol.Request{
			Type:      protocol.TypeClaim,
			SessionID: sid,
			Claim:     &protocol.ClaimPayload{IsExactChallenge: true},
		}, err

	case "rename", "name":
		if len(args) == 0 {
			return protocol.Request{}, fmt.Errorf("usage: rename <name>")
		}
		sid, err := needSession()
		return protocol.Request{
			Type:        protocol.TypeRename,
			SessionID:   sid,
			DisplayName: strings.Join(args, " "),
		}, err
	}

	return protocol.Request{}, fmt.Errorf("unknown command %q (%s)", cmd, Help)
}
