// Package service implements login and signup on top of the credential store
// and the token issuer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/hongminglow/reward-auth/internal/attendance"
	"github.com/hongminglow/reward-auth/internal/auth"
	"github.com/hongminglow/reward-auth/internal/metrics"
	"github.com/hongminglow/reward-auth/internal/models"
	"github.com/hongminglow/reward-auth/internal/storage"
)

// TokenIssuer signs the identity and role claims of a session token.
type TokenIssuer interface {
	Generate(identity, role string) (string, error)
}

// AuthService verifies credentials, issues tokens, tracks attendance and
// registers users with referral crediting.
type AuthService struct {
	store   storage.UserStore
	tokens  TokenIssuer
	secrets auth.SecretVerifier
	policy  attendance.Policy
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithMetrics records outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *AuthService) { s.logger = l }
}

// NewAuthService creates an AuthService. All four collaborators are required.
func NewAuthService(store storage.UserStore, tokens TokenIssuer, secrets auth.SecretVerifier, policy attendance.Policy, opts ...Option) (*AuthService, error) {
	switch {
	case store == nil:
		return nil, oops.Errorf("user store is required")
	case tokens == nil:
		return nil, oops.Errorf("token issuer is required")
	case secrets == nil:
		return nil, oops.Errorf("secret verifier is required")
	case policy == nil:
		return nil, oops.Errorf("attendance policy is required")
	}
	s := &AuthService{
		store:   store,
		tokens:  tokens,
		secrets: secrets,
		policy:  policy,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login checks identity and secret and returns a signed token. A successful
// login also runs the attendance check and moves lastLoginAt forward.
func (s *AuthService) Login(ctx context.Context, identity, secret string) (string, error) {
	user, err := s.store.FindByIdentity(ctx, identity)
	found := err == nil
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.metrics.Login(metrics.OutcomeError)
		return "", storeFailure("find user", err)
	}

	// Lookup is by identity only; the secret is compared after retrieval.
	if !found || identity != user.Identity || !s.secrets.Matches(user.Secret, secret) {
		s.metrics.Login(metrics.OutcomeInvalidCredentials)
		return "", invalidCredentials()
	}

	token, err := s.tokens.Generate(user.Identity, user.Role)
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return "", oops.Code("AUTH_TOKEN_FAILED").
			With("identity", identity).
			Wrap(err)
	}

	now := s.now()
	var incremented bool
	updated, err := s.store.RecordLogin(ctx, identity, now, func(current models.User) bool {
		incremented = s.policy(current.LastLoginAt, now, current.LoginCount)
		return incremented
	})
	if err != nil {
		s.metrics.Login(metrics.OutcomeError)
		return "", storeFailure("record login", err)
	}
	if incremented {
		s.metrics.AttendanceIncrement()
	}
	s.metrics.Login(metrics.OutcomeSuccess)

	s.logger.DebugContext(ctx, "login succeeded",
		"identity", identity,
		"login_count", updated.LoginCount,
		"attendance_incremented", incremented,
	)
	return token, nil
}

// SignUp creates a user. An empty role defaults to USER. When recommend names
// an existing user other than the new one, that user's recommend count is
// incremented; an unknown referrer is ignored.
//
// The user is created before the referrer is credited, so a duplicate signup
// never credits anyone. If crediting then fails with ErrStoreUnavailable the
// new user already exists, and retrying the same signup yields
// ErrDuplicateIdentity.
func (s *AuthService) SignUp(ctx context.Context, identity, secret, role, recommend string) (models.User, error) {
	if strings.TrimSpace(identity) == "" || strings.TrimSpace(secret) == "" {
		s.metrics.SignUp(metrics.OutcomeInvalidInput)
		return models.User{}, invalidInput("identity and secret are required")
	}
	// Identities appear as path segments on forwarded routes.
	if strings.ContainsAny(identity, `/\`) {
		s.metrics.SignUp(metrics.OutcomeInvalidInput)
		return models.User{}, invalidInput("identity must not contain path separators")
	}
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		s.metrics.SignUp(metrics.OutcomeInvalidInput)
		return models.User{}, invalidInput(fmt.Sprintf("unknown role %q", role))
	}

	prepared, err := s.secrets.Prepare(secret)
	if err != nil {
		s.metrics.SignUp(metrics.OutcomeError)
		return models.User{}, oops.Code("SIGNUP_SECRET_FAILED").Wrap(err)
	}

	created, err := s.store.CreateUser(ctx, models.User{
		Identity:    identity,
		Secret:      prepared,
		Role:        role,
		LastLoginAt: s.now(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.metrics.SignUp(metrics.OutcomeDuplicate)
			return models.User{}, oops.Code("SIGNUP_DUPLICATE_IDENTITY").
				With("identity", identity).
				Wrap(fmt.Errorf("%w: %w", ErrDuplicateIdentity, err))
		}
		s.metrics.SignUp(metrics.OutcomeError)
		return models.User{}, storeFailure("create user", err)
	}

	if recommend != "" && recommend != identity {
		if err := s.creditReferrer(ctx, recommend); err != nil {
			s.metrics.SignUp(metrics.OutcomeError)
			return models.User{}, err
		}
	}

	s.metrics.SignUp(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "user signed up", "identity", identity, "role", role)
	return created, nil
}

func (s *AuthService) creditReferrer(ctx context.Context, recommend string) error {
	err := s.store.IncrementRecommendCount(ctx, recommend)
	switch {
	case err == nil:
		s.metrics.ReferralCredited()
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return nil
	default:
		return storeFailure("credit referrer", err)
	}
}
