package auth

import (
	"context"
	"strings"
	"time"

	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/metrics"
	"github.com/Heidric/workify/internal/model"
	"github.com/Heidric/workify/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var log zerolog.Logger

const tokenType = "Bearer"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailNotUnique     = errors.New("email not unique")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

type AuthStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	SetNewPassword(ctx context.Context, userID int64, passwordHash string, temporary bool) error
}

type TokenIssuer interface {
	Issue(dto model.JwtDTO, ttl time.Duration) (string, time.Time, error)
}

// LoginLimiter throttles repeated logins for the same email. Attempt counts
// an attempt before the password is checked and reports whether it is
// still within the limit; a successful login calls Reset.
type LoginLimiter interface {
	Attempt(ctx context.Context, email string) (bool, error)
	Reset(ctx context.Context, email string) error
}

type Option func(*Auth)

func WithLimiter(l LoginLimiter) Option {
	return func(a *Auth) {
		a.limiter = l
	}
}

func WithHashCost(cost int) Option {
	return func(a *Auth) {
		a.hashCost = cost
	}
}

type Auth struct {
	storage  AuthStorage
	tokens   TokenIssuer
	limiter  LoginLimiter
	hashCost int
	// dummyHash is compared against when the email is unknown so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func New(storage AuthStorage, tokens TokenIssuer, opts ...Option) *Auth {
	log = *logger.Log
	log = log.With().Str("name", "auth-service").Logger()

	a := &Auth{
		storage:  storage,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(a)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("workify-dummy-password"), a.hashCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to prepare dummy hash")
	}
	a.dummyHash = hash

	return a
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Auth) Register(ctx context.Context, dto model.RegisterDTO) (*model.LoginResponse, error) {
	email := normalizeEmail(dto.Email)

	_, err := a.storage.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailNotUnique
	case !errors.Is(err, storage.ErrEntityNotFound):
		return nil, errors.Wrap(err, "get user by email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), a.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &model.User{
		Email:    email,
		Name:     strings.TrimSpace(dto.Name),
		Role:     dto.Role,
		Password: string(hash),
	}

	id, err := a.storage.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, ErrEmailNotUnique
		}
		return nil, errors.Wrap(err, "create user")
	}
	user.ID = id

	log.Info().Int64("userId", id).Str("role", user.Role).Msg("User registered")

	return a.issue(user)
}

func (a *Auth) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	email = normalizeEmail(email)

	if a.limiter != nil {
		allowed, err := a.limiter.Attempt(ctx, email)
		if err != nil {
			log.Warn().Err(err).Msg("Login limiter unavailable")
		} else if !allowed {
			metrics.LoginThrottled()
			return nil, ErrTooManyAttempts
		}
	}

	user, err := a.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrEntityNotFound) {
			return nil, errors.Wrap(err, "login")
		}
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if a.limiter != nil {
		if err := a.limiter.Reset(ctx, email); err != nil {
			log.Warn().Err(err).Msg("Failed to reset login failures")
		}
	}

	return a.issue(user)
}

func (a *Auth) issue(user *model.User) (*model.LoginResponse, error) {
	token, expiresAt, err := a.tokens.Issue(user.TokenDTO(), 0)
	if err != nil {
		log.Error().Err(err).Int64("userId", user.ID).Msg("Failed to generate access token")
		return nil, errors.Wrap(err, "generate access token")
	}

	return &model.LoginResponse{
		TokenType:   tokenType,
		AccessToken: token,
		ExpiresAt:   expiresAt.UTC(),
		User:        user.Identity(),
	}, nil
}

func (a *Auth) Me(ctx context.Context, userID int64) (*model.Identity, error) {
	user, err := a.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "get user by ID")
	}

	identity := user.Identity()
	return &identity, nil
}

// ChangePassword replaces the password and returns a fresh token, since
// tokens issued against a temporary password are restricted.
func (a *Auth) ChangePassword(ctx context.Context, userID int64, password, newPassword string) (*model.LoginResponse, error) {
	user, err := a.storage.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "get user by ID")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), a.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	if err := a.storage.SetNewPassword(ctx, userID, string(hash), false); err != nil {
		return nil, errors.Wrap(err, "set new password")
	}
	user.Password = string(hash)
	user.PasswordTemporary = false

	return a.issue(user)
}
