package memory

import (
	"context"
	"time"

	"parking-booking/internal/data/entity"

	"github.com/google/uuid"
)

type userRepository struct {
	*view
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var found *entity.User
	err := r.run(func() error {
		if user, ok := r.s.users[id]; ok && user.DeletedAt == nil {
			u := *user
			found = &u
		}
		return nil
	})
	return found, err
}

type sessionRepository struct {
	*view
}

func (r *sessionRepository) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	var found *entity.Session
	err := r.run(func() error {
		session, ok := r.s.sessions[token]
		if !ok || session.RevokedAt != nil || !session.ExpiresAt.After(time.Now()) {
			return nil
		}
		s := *session
		found = &s
		return nil
	})
	return found, err
}
