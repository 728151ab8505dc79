package dbschema

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Conversation{})
	database.RegisterSchemaForAutoMigrate(Message{})
}

// Conversation represents the database schema for conversations
type Conversation struct {
	ID        uint    `gorm:"primarykey"`
	PublicID  string  `gorm:"type:varchar(50);uniqueIndex;not null"`
	UserID    string  `gorm:"type:varchar(100);index:idx_conversation_user_updated;not null"`
	Title     *string `gorm:"type:varchar(256)"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index:idx_conversation_user_updated;index"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

// Message represents the database schema for conversation messages
type Message struct {
	ID             uint           `gorm:"primarykey"`
	PublicID       string         `gorm:"type:varchar(50);uniqueIndex;not null"`
	ConversationID uint           `gorm:"index:idx_message_conversation_created;not null"`
	Role           string         `gorm:"type:varchar(20);not null"`
	Content        string         `gorm:"type:text;not null"`
	Model          *string        `gorm:"type:varchar(100)"`
	Usage          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"index:idx_message_conversation_created"`
}

// NewSchemaConversation creates a database schema from a domain conversation
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	return &Conversation{
		ID:        c.ID,
		PublicID:  c.PublicID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// EtoD converts database schema to domain conversation (Entity to Domain)
func (c *Conversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        c.ID,
		PublicID:  c.PublicID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NewSchemaMessage creates a database schema from a domain message
func NewSchemaMessage(m *conversation.Message) *Message {
	row := &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		Model:          m.Model,
		CreatedAt:      m.CreatedAt,
	}
	if m.Usage != nil {
		if raw, err := json.Marshal(m.Usage); err == nil {
			row.Usage = datatypes.JSON(raw)
		}
	}
	return row
}

// EtoD converts database schema to domain message (Entity to Domain)
func (m *Message) EtoD() *conversation.Message {
	msg := &conversation.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ConversationID: m.ConversationID,
		Role:           conversation.Role(m.Role),
		Content:        m.Content,
		Model:          m.Model,
		CreatedAt:      m.CreatedAt,
	}
	if len(m.Usage) > 0 {
		var usage conversation.TokenUsage
		if err := json.Unmarshal(m.Usage, &usage); err == nil {
			msg.Usage = &usage
		}
	}
	return msg
}
