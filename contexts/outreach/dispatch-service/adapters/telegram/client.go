package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

// Connector opens provider connections from stored session credentials. The
// credential blob is the session's bot token.
type Connector struct {
	Logger *slog.Logger
}

func (c Connector) Connect(ctx context.Context, session entities.Session) (ports.Messenger, error) {
	token := strings.TrimSpace(session.Credentials)
	if token == "" {
		return nil, fmt.Errorf("session %s has no credentials", session.SessionID)
	}
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, fmt.Errorf("create client for session %s: %w", session.SessionID, err)
	}
	if _, err := bot.GetMe(ctx); err != nil {
		return nil, fmt.Errorf("verify session %s: %w", session.SessionID, err)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("telegram session connected",
		"event", "telegram_session_connected",
		"module", "outreach/dispatch-service",
		"layer", "adapter",
		"session_id", session.SessionID,
	)
	return &Messenger{bot: bot, sessionID: session.SessionID}, nil
}

type Messenger struct {
	bot       *telego.Bot
	sessionID string
}

// Resolve turns an EntityRef into a sendable chat reference. A known access
// hash lets the peer be addressed directly without a lookup; otherwise the
// provider is asked.
func (m *Messenger) Resolve(ctx context.Context, ref ports.EntityRef) (ports.Entity, error) {
	if ref.Username != "" {
		chat, err := m.bot.GetChat(ctx, &telego.GetChatParams{
			ChatID: tu.Username("@" + strings.TrimPrefix(ref.Username, "@")),
		})
		if err != nil {
			return nil, classify(err)
		}
		return tu.ID(chat.ID), nil
	}
	if ref.AccessHash != 0 {
		return tu.ID(ref.TelegramUserID), nil
	}
	chat, err := m.bot.GetChat(ctx, &telego.GetChatParams{ChatID: tu.ID(ref.TelegramUserID)})
	if err != nil {
		return nil, classify(err)
	}
	return tu.ID(chat.ID), nil
}

func (m *Messenger) Send(ctx context.Context, target ports.Entity, message string) error {
	chatID, ok := target.(telego.ChatID)
	if !ok {
		return &ports.SendError{
			Code:    ports.SendErrorInvalidTarget,
			Message: fmt.Sprintf("unexpected target type %T", target),
		}
	}
	if _, err := m.bot.SendMessage(ctx, tu.Message(chatID, message)); err != nil {
		return classify(err)
	}
	return nil
}

func (m *Messenger) Disconnect(_ context.Context) error {
	// The client is stateless HTTP; nothing to tear down.
	return nil
}
