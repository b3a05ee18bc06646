package telegram

import (
	"strings"

	"herald/contexts/outreach/dispatch-service/ports"
)

// classify converts a raw provider error into a typed SendError. The string
// matching lives here and only here; the dispatch engine reacts to the code.
func classify(err error) *ports.SendError {
	message := err.Error()
	upper := strings.ToUpper(message)

	code := ports.SendErrorUnknown
	switch {
	case strings.Contains(upper, "PEER_ID_INVALID"),
		strings.Contains(upper, "USER_ID_INVALID"),
		strings.Contains(upper, "CHAT NOT FOUND"),
		strings.Contains(upper, "USER NOT FOUND"),
		strings.Contains(upper, "USER IS DEACTIVATED"):
		code = ports.SendErrorInvalidTarget
	case strings.Contains(upper, "PEER_FLOOD"),
		strings.Contains(upper, "FLOOD_WAIT"),
		strings.Contains(upper, "TOO MANY REQUESTS"):
		code = ports.SendErrorFlood
	case strings.Contains(upper, "USER_NOT_PARTICIPANT"),
		strings.Contains(upper, "NOT A MEMBER"):
		code = ports.SendErrorNotMember
	case strings.Contains(upper, "UNAUTHORIZED"),
		strings.Contains(upper, "BOT WAS BLOCKED"),
		strings.Contains(upper, "USER_IS_BLOCKED"):
		code = ports.SendErrorUnauthorized
	}
	return &ports.SendError{Code: code, Message: message}
}
