package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/reward-auth/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// AttendanceFunc decides, from the record as currently stored, whether a login
// at the given instant earns an attendance increment.
type AttendanceFunc func(current models.User) bool

// UserStore captures persistence operations needed by the auth engine.
//
// The targeted updates are atomic for a single identity. RecordLogin runs the
// attendance decision and both updates while holding that identity, so
// concurrent logins cannot both observe the same pre-increment state.
type UserStore interface {
	FindByIdentity(ctx context.Context, identity string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	IncrementLoginCount(ctx context.Context, identity string) error
	IncrementRecommendCount(ctx context.Context, identity string) error
	TouchLastLogin(ctx context.Context, identity string, at time.Time) error
	RecordLogin(ctx context.Context, identity string, at time.Time, due AttendanceFunc) (models.User, error)
}
