package jwt

import (
	"strconv"
	"time"

	"github.com/Heidric/workify/internal/logger"
	"github.com/Heidric/workify/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultTTL      = time.Hour * 24 * 7
	MinSecretLength = 32
)

var (
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken covers every verification failure. The concrete cause
	// is only part of the wrapped message.
	ErrInvalidToken = errors.New("invalid token")
)

// signingMethod is the only algorithm accepted by Verify, whatever the
// token header says.
var signingMethod = jwt.SigningMethodHS256

type Option func(*Codec)

// WithClock replaces time.Now for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// Codec issues and verifies access tokens. It is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
	parser   *jwt.Parser
	log      zerolog.Logger
}

func New(cfg *Config, opts ...Option) (*Codec, error) {
	if cfg == nil {
		return nil, errors.New("jwt config is nil")
	}
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is not set")
	}
	if len(cfg.Secret) < MinSecretLength {
		return nil, errors.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, errors.New("jwt ttl must not be negative")
	}

	c := &Codec{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      time.Now,
		log:      logger.Log.With().Str("name", "jwt").Logger(),
	}
	if c.ttl == 0 {
		c.ttl = DefaultTTL
	}

	for _, opt := range opts {
		opt(c)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(c.audience))
	}
	c.parser = jwt.NewParser(parserOpts...)

	return c, nil
}

// TTL is the lifetime used when Issue gets a non-positive ttl.
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for dto and returns it with its expiry, as encoded
// in the exp claim (whole seconds).
func (c *Codec) Issue(dto model.JwtDTO, ttl time.Duration) (string, time.Time, error) {
	if !model.IsValidRole(dto.Role) {
		return "", time.Time{}, errors.Errorf("unknown role %q", dto.Role)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	now := c.now()
	claims := &model.UserClaim{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(dto.ID, 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ID:                dto.ID,
		Role:              dto.Role,
		Email:             dto.Email,
		Name:              dto.Name,
		PasswordTemporary: dto.PasswordTemporary,
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}

	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}

	return token, claims.ExpiresAt.Time, nil
}

// Verify returns the claims of a well-formed, correctly signed, unexpired
// HS256 token. Any failure satisfies errors.Is(err, ErrInvalidToken).
func (c *Codec) Verify(token string) (*model.UserClaim, error) {
	claims := &model.UserClaim{}

	t, err := c.parser.ParseWithClaims(token, claims, c.key)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if !t.Valid {
		return nil, errors.Wrap(ErrInvalidToken, "token is not valid")
	}

	return claims, nil
}

func (c *Codec) key(t *jwt.Token) (interface{}, error) {
	if t.Method != signingMethod {
		return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
	}

	return c.secret, nil
}
