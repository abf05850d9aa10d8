package user

import (
	"context"

	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/storage"
	"github.com/Heidric/workify/pkg/security"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var log zerolog.Logger

const temporaryPasswordLength = 12

var ErrUserNotFound = errors.New("user not found")

type Storage interface {
	ListUsers(ctx context.Context, q model.UserListQuery) ([]model.User, error)
	CountUsers(ctx context.Context, q model.UserListQuery) (int64, error)
	SetNewPassword(ctx context.Context, userID int64, passwordHash string, temporary bool) error
}

type Service struct {
	storage  Storage
	hashCost int
}

func New(storage Storage, hashCost int) *Service {
	log = *logger.Log
	log = log.With().Str("name", "user-service").Logger()

	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}

	return &Service{storage: storage, hashCost: hashCost}
}

func (s *Service) List(ctx context.Context, q model.UserListQuery) (*model.UserListResponse, error) {
	users, err := s.storage.ListUsers(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	total, err := s.storage.CountUsers(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "count users")
	}

	return &model.UserListResponse{Items: users, Total: total}, nil
}

// ResetPassword replaces the user's password with a generated temporary
// one and returns it. Issued tokens stay valid until they expire.
func (s *Service) ResetPassword(ctx context.Context, adminID, userID int64) (string, error) {
	password, err := security.TemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return "", errors.Wrap(err, "generate password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	if err := s.storage.SetNewPassword(ctx, userID, string(hash), true); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return "", ErrUserNotFound
		}
		return "", errors.Wrap(err, "set new password")
	}

	log.Info().Int64("adminId", adminID).Int64("userId", userID).Msg("Password reset by admin")

	return password, nil
}
