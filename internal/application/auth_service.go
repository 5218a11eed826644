package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/config"
	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	"github.com/SrFreiRe/oPortal/pkg/apperr"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
	"github.com/SrFreiRe/oPortal/pkg/mailer"
	mailtpl "github.com/SrFreiRe/oPortal/pkg/mailer/templates"
)

// Auth failures share one credentials message so callers cannot probe which
// accounts exist.
var (
	ErrInvalidCredentials = apperr.Unauthorized("incorrect email or password")
	ErrDuplicateEmail     = apperr.Conflict("this email is already registered")
	ErrDuplicateUsername  = apperr.Conflict("this username is already taken")
	ErrNoRefreshToken     = apperr.Unauthorized("no refresh token provided")
	ErrRefreshExpired     = apperr.Unauthorized("refresh token expired, please log in again")
	ErrRefreshInvalid     = apperr.Unauthorized("invalid refresh token")
	ErrTokenReused        = apperr.Unauthorized("token invalid or already used, please log in again")
	ErrUserGone           = apperr.Unauthorized("the user for this token no longer exists")
	ErrWrongPassword      = apperr.Unauthorized("current password is incorrect")
)

// TokenPair is an access/refresh token pair with the embedded expiries.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// AuthService orchestrates registration, login, logout, token rotation and
// password changes. Refresh-token state lives on the user row; the service
// itself is stateless.
type AuthService struct {
	Users  repository.UserRepository
	JWT    *helpers.JWTManager
	Pub    *helpers.RabbitPublisher
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewAuthService(users repository.UserRepository, jwt *helpers.JWTManager, pub *helpers.RabbitPublisher, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, JWT: jwt, Pub: pub, Cfg: cfg, Logger: logger}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// One combined existence query covers both unique fields.
	existing, err := s.Users.FindByEmailOrUsername(ctx, email, in.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, TokenPair{}, err
	}
	if existing != nil {
		if existing.Email == email {
			return nil, TokenPair{}, ErrDuplicateEmail
		}
		return nil, TokenPair{}, ErrDuplicateUsername
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{
		Username:    in.Username,
		Email:       email,
		Password:    hash,
		Role:        entity.RoleUser,
		Preferences: map[string]any{},
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent registration
			return nil, TokenPair{}, ErrDuplicateEmail
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.enqueueMail(ctx, u, mailtpl.Welcome)
	return u.Sanitize(), pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)), false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u.Sanitize(), pair, nil
}

// Logout removes the presented refresh token, or every outstanding token
// when none is given. Both forms are idempotent.
func (s *AuthService) Logout(ctx context.Context, u *entity.User, refreshToken string) error {
	if refreshToken != "" {
		u.RemoveRefreshToken(refreshToken)
	} else {
		u.ClearRefreshTokens()
	}
	return s.Users.UpdateRefreshTokens(ctx, u.ID, u.RefreshTokens)
}

// Refresh applies the rotation contract: the presented token is consumed
// and a brand-new pair is issued and stored. A signature-valid token that is
// no longer in the outstanding set is treated as theft: the whole set is
// cleared so every device has to re-authenticate.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	if refreshToken == "" {
		return nil, TokenPair{}, ErrNoRefreshToken
	}
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, helpers.ErrTokenExpired) {
			return nil, TokenPair{}, ErrRefreshExpired
		}
		return nil, TokenPair{}, ErrRefreshInvalid
	}

	u, err := s.Users.GetByID(ctx, claims.UserID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrUserGone
		}
		return nil, TokenPair{}, err
	}

	if !u.HasRefreshToken(refreshToken) {
		u.ClearRefreshTokens()
		if err := s.Users.UpdateRefreshTokens(ctx, u.ID, u.RefreshTokens); err != nil {
			return nil, TokenPair{}, err
		}
		if s.Logger != nil {
			s.Logger.WithField("user_id", u.ID).Warn("refresh token reuse detected, all sessions revoked")
		}
		return nil, TokenPair{}, ErrTokenReused
	}

	u.RemoveRefreshToken(refreshToken)
	pair, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u.Sanitize(), pair, nil
}

// ChangePassword re-hashes the password, stamps passwordChangedAt and
// revokes every outstanding refresh token, then issues a fresh pair so the
// current device stays logged in.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*entity.User, TokenPair, error) {
	u, err := s.Users.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrUserGone
		}
		return nil, TokenPair{}, err
	}
	if !helpers.CompareHashAndPassword(u.Password, currentPassword) {
		return nil, TokenPair{}, ErrWrongPassword
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u.Password = hash
	// Backdate a second so an access token minted in the same instant is
	// not considered stale.
	u.PasswordChangedAt = time.Now().Add(-time.Second)
	u.ClearRefreshTokens()
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, TokenPair{}, err
	}

	pair, err := s.issueAndStore(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.enqueueMail(ctx, u, mailtpl.PasswordChanged)
	return u.Sanitize(), pair, nil
}

func (s *AuthService) issueAndStore(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID)
	if err != nil {
		return TokenPair{}, err
	}
	u.AddRefreshToken(refresh)
	if err := s.Users.UpdateRefreshTokens(ctx, u.ID, u.RefreshTokens); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

// enqueueMail publishes a transactional email job; delivery is best effort
// and never fails the calling operation.
func (s *AuthService) enqueueMail(ctx context.Context, u *entity.User, kind string) {
	if s.Pub == nil || s.Cfg == nil || !s.Cfg.MailSendEnabled {
		return
	}
	data := mailtpl.ToMap(mailtpl.EmailData{
		Name:           u.Username,
		Email:          u.Email,
		Type:           kind,
		CompanyName:    s.Cfg.CompanyName,
		AppName:        s.Cfg.AppName,
		SupportURL:     s.Cfg.SupportURL,
		LoginURL:       s.Cfg.LoginURL,
		UnsubscribeURL: s.Cfg.UnsubscribeURL,
		Time:           time.Now().UTC().Format(time.RFC3339),
	})
	job := mailer.EmailJob{To: u.Email, Template: "universal", Data: data}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("template", kind).Warn("enqueue email failed")
	}
}
