package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"genai-studio/chat-api/internal/domain/conversation"
	"genai-studio/chat-api/internal/domain/query"
	"genai-studio/chat-api/internal/infrastructure/database/dbschema"
	"genai-studio/chat-api/internal/infrastructure/database/transaction"
	"genai-studio/chat-api/internal/utils/functional"
	"genai-studio/chat-api/internal/utils/platformerrors"
)

type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.ConversationRepository = (*ConversationGormRepository)(nil)

func NewConversationGormRepository(db *transaction.Database) conversation.ConversationRepository {
	return &ConversationGormRepository{db}
}

// Create implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	model := dbschema.NewSchemaConversation(conv)
	if err := repo.db.GetTx(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to create conversation")
	}
	conv.ID = model.ID
	conv.CreatedAt = model.CreatedAt
	conv.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByPublicID implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) FindByPublicID(ctx context.Context, publicID string) (*conversation.Conversation, error) {
	var row dbschema.Conversation
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("public_id = ?", publicID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "e2a7d4b1-8f3c-4d6e-9b0a-5c1f8e4d7a2b")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversation by public ID")
	}
	return row.EtoD(), nil
}

// FindByUser implements conversation.ConversationRepository. Results are
// ordered by updated_at descending, message counts included.
func (repo *ConversationGormRepository) FindByUser(ctx context.Context, userID string, pagination *query.Pagination) ([]*conversation.Conversation, error) {
	tx := repo.db.GetTx(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC")
	if pagination != nil {
		tx = tx.Offset(pagination.Offset()).Limit(pagination.Limit())
	}

	var rows []*dbschema.Conversation
	if err := tx.Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find conversations")
	}

	result := functional.Map(rows, func(row *dbschema.Conversation) *conversation.Conversation {
		return row.EtoD()
	})

	for _, conv := range result {
		count, err := repo.CountMessages(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		conv.MessageCount = count
	}
	return result, nil
}

// CountByUser implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count conversations")
	}
	return count, nil
}

// UpdateTitle implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) UpdateTitle(ctx context.Context, id uint, title string) error {
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		Update("title", title).Error
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to update conversation title")
	}
	return nil
}

// Delete implements conversation.ConversationRepository. The conversation and
// its messages go in one transaction so partial deletion is never observable.
func (repo *ConversationGormRepository) Delete(ctx context.Context, id uint) error {
	err := repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)
		if err := tx.Where("conversation_id = ?", id).Delete(&dbschema.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&dbschema.Conversation{}).Error
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to delete conversation")
	}
	return nil
}

// AppendMessage implements conversation.ConversationRepository. The insert
// and the parent updated_at bump share one transaction.
func (repo *ConversationGormRepository) AppendMessage(ctx context.Context, conversationID uint, message *conversation.Message) error {
	message.ConversationID = conversationID
	model := dbschema.NewSchemaMessage(message)

	err := repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)

		var exists int64
		if err := tx.Model(&dbschema.Conversation{}).Where("id = ?", conversationID).Count(&exists).Error; err != nil {
			return err
		}
		if exists == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return tx.Model(&dbschema.Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", model.CreatedAt).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "conversation not found", err, "1f6b3d8e-4a7c-4e2d-b9f0-6c8a1e5d3b7f")
		}
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to append message")
	}

	message.ID = model.ID
	message.CreatedAt = model.CreatedAt
	return nil
}

// RecentMessages implements conversation.ConversationRepository. The newest
// limit rows are fetched descending, then reversed to chronological order.
func (repo *ConversationGormRepository) RecentMessages(ctx context.Context, conversationID uint, limit int) ([]*conversation.Message, error) {
	var rows []*dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load recent messages")
	}

	return functional.Reverse(functional.Map(rows, func(row *dbschema.Message) *conversation.Message {
		return row.EtoD()
	})), nil
}

// ListMessages implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) ListMessages(ctx context.Context, conversationID uint) ([]*conversation.Message, error) {
	var rows []*dbschema.Message
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list messages")
	}

	return functional.Map(rows, func(row *dbschema.Message) *conversation.Message {
		return row.EtoD()
	}), nil
}

// CountMessages implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) CountMessages(ctx context.Context, conversationID uint) (int64, error) {
	var count int64
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count messages")
	}
	return count, nil
}

// PurgeOlderThan implements conversation.ConversationRepository. Runs in one
// transaction; concurrent appends to surviving conversations are unaffected.
func (repo *ConversationGormRepository) PurgeOlderThan(ctx context.Context, horizon time.Time) (int64, error) {
	var purged int64
	err := repo.db.Transaction(ctx, func(ctx context.Context) error {
		tx := repo.db.GetTx(ctx).WithContext(ctx)

		var ids []uint
		if err := tx.Model(&dbschema.Conversation{}).
			Where("updated_at < ?", horizon).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("conversation_id IN ?", ids).Delete(&dbschema.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&dbschema.Conversation{})
		if result.Error != nil {
			return result.Error
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to purge conversations")
	}
	return purged, nil
}

// Totals implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) Totals(ctx context.Context) (int64, int64, error) {
	tx := repo.db.GetTx(ctx).WithContext(ctx)

	var conversations, messages int64
	if err := tx.Model(&dbschema.Conversation{}).Count(&conversations).Error; err != nil {
		return 0, 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count conversations")
	}
	if err := tx.Model(&dbschema.Message{}).Count(&messages).Error; err != nil {
		return 0, 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count messages")
	}
	return conversations, messages, nil
}

// UserTotals implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) UserTotals(ctx context.Context, userID string) (int64, int64, error) {
	tx := repo.db.GetTx(ctx).WithContext(ctx)

	var conversations int64
	if err := tx.Model(&dbschema.Conversation{}).
		Where("user_id = ?", userID).
		Count(&conversations).Error; err != nil {
		return 0, 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count user conversations")
	}

	var messages int64
	if err := tx.Model(&dbschema.Message{}).
		Joins("JOIN chat_api.conversations ON chat_api.conversations.id = chat_api.messages.conversation_id").
		Where("chat_api.conversations.user_id = ?", userID).
		Count(&messages).Error; err != nil {
		return 0, 0, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to count user messages")
	}
	return conversations, messages, nil
}

// DailyMessageCounts implements conversation.ConversationRepository.
func (repo *ConversationGormRepository) DailyMessageCounts(ctx context.Context, since time.Time) ([]conversation.DailyCount, error) {
	var rows []conversation.DailyCount
	err := repo.db.GetTx(ctx).WithContext(ctx).
		Model(&dbschema.Message{}).
		Select("date_trunc('day', created_at) AS day, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to load per-day volume")
	}
	return rows, nil
}
