package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
)

// ConversationRepository implements conversation.Repository. Conversations are
// written by the messaging side; Create exists for seeding.
type ConversationRepository struct {
	pool *pgxpool.Pool
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

var _ conversation.Repository = (*ConversationRepository)(nil)

func (r *ConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO conversations (participant_one, participant_two, created_at)
		VALUES ($1,$2,$3)
		RETURNING id
	`, c.ParticipantOne, c.ParticipantTwo, c.CreatedAt).Scan(&c.ID)
	return translate("conversation", err)
}

func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, participant_one, participant_two, created_at FROM conversations WHERE id=$1
	`, id).Scan(&c.ID, &c.ParticipantOne, &c.ParticipantTwo, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
