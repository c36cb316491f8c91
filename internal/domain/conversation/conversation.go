package conversation

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_repository.go -package=mocks . Repository

import (
	"context"
	"time"
)

// Conversation is a direct chat between two users. Messages live elsewhere;
// the workflow only needs to know who takes part.
type Conversation struct {
	ID             int64     `json:"id"`
	ParticipantOne int64     `json:"participantOne"`
	ParticipantTwo int64     `json:"participantTwo"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (c *Conversation) Has(userID int64) bool {
	return c.ParticipantOne == userID || c.ParticipantTwo == userID
}

// Other returns the participant that is not userID.
func (c *Conversation) Other(userID int64) (int64, bool) {
	switch userID {
	case c.ParticipantOne:
		return c.ParticipantTwo, true
	case c.ParticipantTwo:
		return c.ParticipantOne, true
	}
	return 0, false
}

// Repository resolves conversations. GetByID returns nil, nil when absent.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Conversation, error)
}
