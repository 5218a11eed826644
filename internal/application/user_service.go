package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/config"
	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	"github.com/SrFreiRe/oPortal/pkg/apperr"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
	"github.com/SrFreiRe/oPortal/pkg/mailer"
	mailtpl "github.com/SrFreiRe/oPortal/pkg/mailer/templates"
)

var (
	ErrUserNotFound  = apperr.NotFound("user not found")
	ErrNoFields      = apperr.Validation("no valid fields provided for update")
	ErrNoPreferences = apperr.Validation("no preferences provided for update")
)

// UserService covers profile reads and updates, preference merging,
// account deactivation and the admin user listing.
type UserService struct {
	Users     repository.UserRepository
	GCS       *storage.Client
	GCSBucket string
	Pub       *helpers.RabbitPublisher
	Cfg       *config.Config
	Logger    *logrus.Logger
}

func NewUserService(users repository.UserRepository, gcs *storage.Client, gcsBucket string, pub *helpers.RabbitPublisher, cfg *config.Config, logger *logrus.Logger) *UserService {
	return &UserService{Users: users, GCS: gcs, GCSBucket: gcsBucket, Pub: pub, Cfg: cfg, Logger: logger}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u.Sanitize(), nil
}

// UpdateProfile updates the username, the only directly editable identity
// field. Uniqueness is re-checked excluding the user themselves.
func (s *UserService) UpdateProfile(ctx context.Context, userID, username string) (*entity.User, error) {
	if username == "" {
		return nil, ErrNoFields
	}
	existing, err := s.Users.FindByEmailOrUsername(ctx, "", username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != userID {
		return nil, ErrDuplicateUsername
	}

	u, err := s.Users.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Username = username
	if err := s.Users.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return u.Sanitize(), nil
}

// UpdatePreferences merges the given keys into the stored preference map;
// existing keys not mentioned are kept.
func (s *UserService) UpdatePreferences(ctx context.Context, userID string, prefs map[string]any) (*entity.User, error) {
	if len(prefs) == 0 {
		return nil, ErrNoPreferences
	}
	u, err := s.Users.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u.Preferences == nil {
		u.Preferences = map[string]any{}
	}
	for k, v := range prefs {
		u.Preferences[k] = v
	}
	if err := s.Users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u.Sanitize(), nil
}

// Deactivate soft-deletes the account and revokes every session. The row
// is kept; only administrative reads that opt into inactive users see it
// afterwards.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	u, err := s.Users.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	u.Active = false
	u.ClearRefreshTokens()
	if err := s.Users.Update(ctx, u); err != nil {
		return err
	}
	s.enqueueMail(ctx, u, mailtpl.AccountDeactivated)
	return nil
}

// enqueueMail publishes a transactional email job; delivery is best effort
// and never fails the calling operation.
func (s *UserService) enqueueMail(ctx context.Context, u *entity.User, kind string) {
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

// GetUser is the admin single-user fetch; it includes deactivated accounts
// deliberately.
func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.Users.GetByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u.Sanitize(), nil
}

// List is the admin user listing with search, role filter and pagination.
func (s *UserService) List(ctx context.Context, f repository.UserFilter) ([]*entity.User, PageMeta, error) {
	users, total, err := s.Users.List(ctx, f)
	if err != nil {
		return nil, PageMeta{}, err
	}
	for _, u := range users {
		u.Sanitize()
	}
	return users, NewPageMeta(len(users), total, f.Page, f.Limit), nil
}

// UploadAvatar stores the image in GCS and records the public URL on the
// profile.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	u, err := s.Users.GetByID(ctx, userID, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("avatars", userID, uuid.NewString()+ext))
	c, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	url, err := helpers.UploadObject(c, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", err
	}
	u.AvatarURL = url
	if err := s.Users.Update(ctx, u); err != nil {
		return "", err
	}
	return url, nil
}
