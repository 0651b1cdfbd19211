package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"filevault/internal/domain/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const userCacheKeyPrefix = "user:"

// cachedUser is the Redis form of a user record. The password digest is
// never written to Redis.
type cachedUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type cachedUserRepository struct {
	next UserRepository
	rdb  redis.Cmdable
	ttl  time.Duration
}

// NewCachedUserRepository puts a read-through Redis cache in front of
// FindByID. FindByEmail and Create always go to next, so login and
// registration see the authoritative store. Redis failures are logged and
// the call falls through to next. Users returned by FindByID carry no
// HashedPassword; credential checks go through FindByEmail.
func NewCachedUserRepository(next UserRepository, rdb redis.Cmdable, ttl time.Duration) UserRepository {
	return &cachedUserRepository{next: next, rdb: rdb, ttl: ttl}
}

func (r *cachedUserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	return r.next.Create(ctx, user)
}

func (r *cachedUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.next.FindByEmail(ctx, email)
}

func (r *cachedUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	key := userCacheKeyPrefix + id
	log := zerolog.Ctx(ctx)

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c cachedUser
		if err := json.Unmarshal(raw, &c); err == nil {
			return c.toModel(), nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cached user")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	user, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entry := fromModel(user)
	payload, err := json.Marshal(entry)
	if err == nil {
		err = r.rdb.Set(ctx, key, payload, r.ttl).Err()
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("user cache write failed")
	}
	return entry.toModel(), nil
}

func fromModel(u *model.User) cachedUser {
	return cachedUser{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c cachedUser) toModel() *model.User {
	return &model.User{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
