package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// MetadataCategory is the message metadata key holding the category the
// assistant asked about. The orchestrator reads it back on the next turn to
// know how to interpret the user's answer.
const MetadataCategory = "category"

// Message is one conversation entry. Content is never empty.
type Message struct {
	Role      Role              `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Conversation is the append-only message log for one profile.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation creates an empty conversation for a profile.
func NewConversation(profileID uuid.UUID) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:        uuid.New(),
		ProfileID: profileID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Conversation) append(role Role, content string, metadata map[string]string) error {
	if content == "" {
		return eris.New("conversation: message content cannot be empty")
	}
	c.Messages = append(c.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	})
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// AddUserMessage appends a user message.
func (c *Conversation) AddUserMessage(content string) error {
	return c.append(RoleUser, content, nil)
}

// AddAssistantMessage appends an assistant message with optional metadata.
func (c *Conversation) AddAssistantMessage(content string, metadata map[string]string) error {
	return c.append(RoleAssistant, content, metadata)
}

// AddSystemMessage appends a system message.
func (c *Conversation) AddSystemMessage(content string) error {
	return c.append(RoleSystem, content, nil)
}

// LastAssistantMessage returns the most recent assistant message, or nil.
func (c *Conversation) LastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return &c.Messages[i]
		}
	}
	return nil
}

// RecentMessages returns up to n of the latest messages in order.
func (c *Conversation) RecentMessages(n int) []Message {
	if n <= 0 || len(c.Messages) == 0 {
		return nil
	}
	if n > len(c.Messages) {
		n = len(c.Messages)
	}
	return c.Messages[len(c.Messages)-n:]
}

// LastAskedCategory reads the category metadata of the most recent assistant
// message. Empty when nothing was asked yet or the last question carried no
// category.
func (c *Conversation) LastAskedCategory() QuestionCategory {
	msg := c.LastAssistantMessage()
	if msg == nil {
		return ""
	}
	v := msg.Metadata[MetadataCategory]
	if !ValidCategory(v) {
		return ""
	}
	return QuestionCategory(v)
}
