package memory

import (
	"context"
	"sync"

	"herald/contexts/outreach/dispatch-service/domain/entities"
	"herald/contexts/outreach/dispatch-service/ports"
)

// SentMessage is one delivered message recorded by the fake messenger.
type SentMessage struct {
	SessionID      string
	TelegramUserID int64
	Username       string
	Message        string
}

// Connector is a scripted in-memory messenger factory. Tests script failures
// per session: ConnectErrors blocks connection outright, SendScripts and
// ResolveScripts yield one error (or nil) per call in order, exhausted
// scripts succeed.
type Connector struct {
	mu             sync.Mutex
	ConnectErrors  map[string]error
	SendScripts    map[string][]error
	ResolveScripts map[string][]error

	messengers map[string]*Messenger
}

func NewConnector() *Connector {
	return &Connector{
		ConnectErrors:  make(map[string]error),
		SendScripts:    make(map[string][]error),
		ResolveScripts: make(map[string][]error),
		messengers:     make(map[string]*Messenger),
	}
}

func (c *Connector) Connect(_ context.Context, session entities.Session) (ports.Messenger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ConnectErrors[session.SessionID]; err != nil {
		return nil, err
	}
	m := &Messenger{
		connector: c,
		sessionID: session.SessionID,
	}
	c.messengers[session.SessionID] = m
	return m, nil
}

// Sent returns every message delivered across all sessions, in send order
// per session.
func (c *Connector) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]SentMessage, 0)
	for _, m := range c.messengers {
		out = append(out, m.sentLocked()...)
	}
	return out
}

func (c *Connector) SentBySession(sessionID string) []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.messengers[sessionID]
	if !ok {
		return nil
	}
	return m.sentLocked()
}

func (c *Connector) Disconnected(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.messengers[sessionID]
	return ok && m.disconnected
}

// ResolveCalls returns every resolution attempt made through a session, in
// call order, so tests can assert which lookup tiers ran.
func (c *Connector) ResolveCalls(sessionID string) []ports.EntityRef {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.messengers[sessionID]
	if !ok {
		return nil
	}
	out := make([]ports.EntityRef, len(m.resolves))
	copy(out, m.resolves)
	return out
}

func (c *Connector) nextSendErr(sessionID string) error {
	script := c.SendScripts[sessionID]
	if len(script) == 0 {
		return nil
	}
	err := script[0]
	c.SendScripts[sessionID] = script[1:]
	return err
}

func (c *Connector) nextResolveErr(sessionID string) error {
	script := c.ResolveScripts[sessionID]
	if len(script) == 0 {
		return nil
	}
	err := script[0]
	c.ResolveScripts[sessionID] = script[1:]
	return err
}

type Messenger struct {
	connector *Connector
	sessionID string

	sent         []SentMessage
	resolves     []ports.EntityRef
	disconnected bool
}

func (m *Messenger) Resolve(_ context.Context, ref ports.EntityRef) (ports.Entity, error) {
	m.connector.mu.Lock()
	defer m.connector.mu.Unlock()

	m.resolves = append(m.resolves, ref)
	if err := m.connector.nextResolveErr(m.sessionID); err != nil {
		return nil, err
	}
	return ref, nil
}

func (m *Messenger) Send(_ context.Context, target ports.Entity, message string) error {
	m.connector.mu.Lock()
	defer m.connector.mu.Unlock()

	if err := m.connector.nextSendErr(m.sessionID); err != nil {
		return err
	}
	ref, _ := target.(ports.EntityRef)
	m.sent = append(m.sent, SentMessage{
		SessionID:      m.sessionID,
		TelegramUserID: ref.TelegramUserID,
		Username:       ref.Username,
		Message:        message,
	})
	return nil
}

func (m *Messenger) Disconnect(_ context.Context) error {
	m.connector.mu.Lock()
	defer m.connector.mu.Unlock()

	m.disconnected = true
	return nil
}

func (m *Messenger) sentLocked() []SentMessage {
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
