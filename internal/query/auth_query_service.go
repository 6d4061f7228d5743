package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ggonzalesd/UniTable/internal/repository"
	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/cqrs"
	"github.com/ggonzalesd/UniTable/shared/metrics"
	"github.com/ggonzalesd/UniTable/shared/models"
	"github.com/ggonzalesd/UniTable/shared/utils"
	"github.com/ggonzalesd/UniTable/shared/validation"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenLifetime is how long an issued token stays valid.
const TokenLifetime = 24 * time.Hour

var signingMethod = jwt.SigningMethodHS512

// dummyPasswordHash is compared against when the email is unknown, so both
// failure paths pay for one bcrypt comparison.
var dummyPasswordHash = sync.OnceValue(func() string {
	hash, err := utils.HashPassword("unitable-login-placeholder")
	if err != nil {
		panic(fmt.Sprintf("failed to hash placeholder password: %v", err))
	}
	return hash
})

// AuthQueryService handles login and token checks. There's no CommandService
// for auth because these operations don't mutate application state.
type AuthQueryService struct {
	store  repository.Store
	secret []byte
	log    *zap.Logger
	now    func() time.Time

	checkPassword func(password, hash string) bool
}

func NewAuthQueryService(store repository.Store, secret string, log *zap.Logger) *AuthQueryService {
	return &AuthQueryService{
		store:  store,
		secret: []byte(secret),
		log:    log,
		now:    time.Now,

		checkPassword: utils.CheckPassword,
	}
}

// Login checks the credentials and issues a token whose subject is the
// user's email. Unknown emails and wrong passwords fail the same way.
func (s *AuthQueryService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.LoginResult, error) {
	email := validation.NormalizeEmail(cmd.Email)

	var user *models.User
	err := s.store.InTx(ctx, repository.ReadOnly, func(r repository.Repositories) error {
		var err error
		user, err = r.Users().GetByEmail(ctx, email)
		return err
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.checkPassword(cmd.Password, dummyPasswordHash())
		return nil, s.loginFailed()
	case err != nil:
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, observe(s.log, "login", err)
	}
	if !s.checkPassword(cmd.Password, user.PasswordHash) {
		return nil, s.loginFailed()
	}

	token, err := s.IssueToken(user.Email)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
		return nil, observe(s.log, "login", err)
	}
	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return &models.LoginResult{Token: token, User: user.View()}, observe(s.log, "login", nil)
}

func (s *AuthQueryService) loginFailed() error {
	metrics.LoginAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
	return observe(s.log, "login", apperrors.Auth("incorrect credentials"))
}

// IssueToken signs a token for subject, valid for TokenLifetime.
func (s *AuthQueryService) IssueToken(subject string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(TokenLifetime)),
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return signed, nil
}

// ValidateToken reports whether token is well formed, correctly signed and
// not expired. The reason for a rejection is only logged.
func (s *AuthQueryService) ValidateToken(token string) bool {
	if _, err := s.parse(token); err != nil {
		s.log.Warn("token rejected", zap.String("reason", rejectReason(err)), zap.Error(err))
		return false
	}
	return true
}

// SubjectFromToken returns the subject of a valid token.
func (s *AuthQueryService) SubjectFromToken(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", apperrors.Validation("invalid token")
	}
	return claims.Subject, nil
}

func (s *AuthQueryService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unsupported"
	default:
		return "invalid claims"
	}
}
