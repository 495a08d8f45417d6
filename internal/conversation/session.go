package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Session holds the ordered messages of one query session.
// Roles are not required to alternate: tool results and model replies
// are both appended as assistant messages.
type Session struct {
	id        string
	startedAt time.Time
	messages  []Message
}

// NewSession creates an empty session with a fresh id
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset drops every message and starts a new session id
func (s *Session) Reset() {
	s.id = uuid.New().String()
	s.startedAt = time.Now()
	s.messages = nil
}

// ID returns the current session id
func (s *Session) ID() string {
	return s.id
}

// StartedAt returns when the current session began
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// AddUserMessage appends a user message
func (s *Session) AddUserMessage(content string) {
	s.add(RoleUser, content)
}

// AddAssistantMessage appends an assistant message
func (s *Session) AddAssistantMessage(content string) {
	s.add(RoleAssistant, content)
}

func (s *Session) add(role Role, content string) {
	s.messages = append(s.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
}

// Messages returns a copy of the messages in order
func (s *Session) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Truncate drops every message after the first n
func (s *Session) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(s.messages) {
		s.messages = s.messages[:n]
	}
}

// Len returns the number of messages
func (s *Session) Len() int {
	return len(s.messages)
}

// IsEmpty reports whether no message has been added since the last reset
func (s *Session) IsEmpty() bool {
	return len(s.messages) == 0
}
