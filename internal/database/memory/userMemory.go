package memory

import (
	"context"
	"strings"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/database"
	"github.com/ds124wfegd/ticketbooker/internal/entity"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) database.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	email := strings.ToLower(user.Email)

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.emails[email]; exists {
		return entity.ErrUserAlreadyExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Email = email

	r.store.nextUserID++
	user.ID = r.store.nextUserID
	r.store.users[user.ID] = copyUser(user)
	r.store.emails[email] = user.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.emails[strings.ToLower(email)]
	if !ok {
		return nil, entity.ErrUserNotFound
	}
	return copyUser(r.store.users[id]), nil
}
