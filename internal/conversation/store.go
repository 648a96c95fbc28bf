// Package conversation holds the transcript of one chat view and the
// controller that runs a user message through the assistant and back.
package conversation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/csheth/studybot/internal/metrics"
)

type Role string

const (
	RoleUser   Role = "user"
	RoleBot    Role = "bot"
	RoleSystem Role = "system"
)

type Kind string

const (
	KindText   Kind = "text"
	KindTyping Kind = "typing"
	KindPie    Kind = "pie"
	KindCard   Kind = "card"
)

// Status tracks whether a user message made it through an exchange.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

type Message struct {
	ID     string
	Role   Role
	Kind   Kind
	Status Status
	Text   string
	Chart  metrics.ChartData
}

// Store is the ordered transcript. Messages are only ever appended or
// removed; display order is append order. A Store is owned by one goroutine.
type Store struct {
	messages   []Message
	greeting   []string
	revision   uint64
	generation uint64
	newID      func() string
}

// NewStore returns a transcript seeded with the greeting lines.
func NewStore(greeting []string) *Store {
	s := &Store{
		greeting: append([]string(nil), greeting...),
		newID:    uuid.NewString,
	}
	s.seed()
	return s
}

// Greeting builds the default welcome lines for name.
func Greeting(name string) []string {
	hello := "Hey there!"
	if name != "" {
		hello = fmt.Sprintf("Hey %s!", name)
	}
	return []string{
		hello,
		"Well done on that last exam!",
		"You scored a 1,200 which is a marked improvement but I think there's still room to grow.",
		"You got this! 😉",
	}
}

func (s *Store) seed() {
	s.messages = []Message{{ID: "card", Role: RoleSystem, Kind: KindCard, Status: StatusConfirmed}}
	for i, line := range s.greeting {
		s.messages = append(s.messages, Message{
			ID:     fmt.Sprintf("g%d", i+1),
			Role:   RoleBot,
			Kind:   KindText,
			Status: StatusConfirmed,
			Text:   line,
		})
	}
	s.revision++
}

func (s *Store) append(msg Message) string {
	if msg.ID == "" {
		msg.ID = s.newID()
	}
	s.messages = append(s.messages, msg)
	s.revision++
	return msg.ID
}

func (s *Store) remove(id string) bool {
	for i, msg := range s.messages {
		if msg.ID == id {
			s.messages = append(s.messages[:i:i], s.messages[i+1:]...)
			s.revision++
			return true
		}
	}
	return false
}

// AppendUser adds a pending user message. Empty text is ignored and yields "".
func (s *Store) AppendUser(text string) string {
	if text == "" {
		return ""
	}
	return s.append(Message{Role: RoleUser, Kind: KindText, Status: StatusPending, Text: text})
}

// ShowTyping adds an "assistant is composing" placeholder.
func (s *Store) ShowTyping() string {
	return s.append(Message{Role: RoleBot, Kind: KindTyping, Status: StatusPending})
}

// ReplaceTyping drops the placeholder and appends text as a new bot message at
// the end of the transcript.
func (s *Store) ReplaceTyping(placeholderID, text string) string {
	s.remove(placeholderID)
	return s.AppendBotText(text)
}

// RemoveTyping drops the placeholder without a replacement.
func (s *Store) RemoveTyping(placeholderID string) {
	s.remove(placeholderID)
}

func (s *Store) AppendBotText(text string) string {
	return s.append(Message{Role: RoleBot, Kind: KindText, Status: StatusConfirmed, Text: text})
}

func (s *Store) AppendPie(chart metrics.ChartData) string {
	return s.append(Message{Role: RoleBot, Kind: KindPie, Status: StatusConfirmed, Chart: chart})
}

// SetStatus updates the status of message id in place.
func (s *Store) SetStatus(id string, status Status) bool {
	for i := range s.messages {
		if s.messages[i].ID == id {
			if s.messages[i].Status != status {
				s.messages[i].Status = status
				s.revision++
			}
			return true
		}
	}
	return false
}

// Messages returns a copy of the transcript.
func (s *Store) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

func (s *Store) Len() int {
	return len(s.messages)
}

// Revision increases on every mutation.
func (s *Store) Revision() uint64 {
	return s.revision
}

// Generation identifies the current conversation instance. Work started
// under an older generation must not touch the transcript.
func (s *Store) Generation() uint64 {
	return s.generation
}

// Invalidate starts a new generation without changing the transcript.
func (s *Store) Invalidate() {
	s.generation++
}

// Reset discards the transcript, restores the greeting and starts a new
// generation.
func (s *Store) Reset() {
	s.generation++
	s.seed()
}
