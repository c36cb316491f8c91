package memory

import (
	"context"

	"github.com/Egyptian-Galacticos/B2B-API-sub000/internal/domain/conversation"
)

// Conversations implements conversation.Repository over conversations
// registered with Store.PutConversation.
type Conversations struct{ store *Store }

func NewConversations(store *Store) *Conversations { return &Conversations{store: store} }

var _ conversation.Repository = (*Conversations)(nil)

func (r *Conversations) GetByID(ctx context.Context, id int64) (*conversation.Conversation, error) {
	r.store.rlock(ctx)
	defer r.store.runlock(ctx)
	c, ok := r.store.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}
