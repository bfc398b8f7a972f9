package commands

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/videohub/backend/internal/apperr"
	"github.com/videohub/backend/internal/auth"
	"github.com/videohub/backend/internal/logging"
	"github.com/videohub/backend/internal/models"
	"github.com/videohub/backend/internal/repositories"
)

// RegisterInput creates an account. Image paths point at already-received local files.
type RegisterInput struct {
	Username   string `json:"username" validate:"required,handle"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FullName   string `json:"fullName" validate:"required,notblank,max=100"`
	AvatarPath string `json:"-"`
	CoverPath  string `json:"-"`
}

// LoginInput authenticates by username or email.
type LoginInput struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput replaces the caller's password.
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// UpdateAccountInput changes profile details. Nil fields are left alone.
type UpdateAccountInput struct {
	FullName *string `json:"fullName" validate:"omitempty,notblank,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
}

// UpdateBioInput replaces the caller's bio.
type UpdateBioInput struct {
	Bio string `json:"bio" validate:"max=500"`
}

// Session is a signed-in user with fresh tokens.
type Session struct {
	User   models.User          `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account after checking username and email are free.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = normalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.check(in); err != nil {
		return models.User{}, err
	}

	if _, err := s.store.Users.FindByUsername(ctx, in.Username); err == nil {
		return models.User{}, apperr.Conflict("username is already taken")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, apperr.Internal("failed to register user", err)
	}
	if _, err := s.store.Users.FindByEmail(ctx, in.Email); err == nil {
		return models.User{}, apperr.Conflict("email is already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return models.User{}, apperr.Internal("failed to register user", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal("failed to register user", err)
	}

	avatar, err := s.upload(ctx, in.AvatarPath, "avatar")
	if err != nil {
		return models.User{}, err
	}
	cover, err := s.upload(ctx, in.CoverPath, "cover image")
	if err != nil {
		s.discard(ctx, avatar.ExternalID)
		return models.User{}, err
	}

	now := s.now()
	user := models.User{
		ID:           s.newID(),
		Username:     in.Username,
		Email:        in.Email,
		Password:     hash,
		FullName:     in.FullName,
		Avatar:       avatar.URL,
		AvatarID:     avatar.ExternalID,
		CoverImage:   cover.URL,
		CoverImageID: cover.ExternalID,
		WatchHistory: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		s.discard(ctx, avatar.ExternalID, cover.ExternalID)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("username or email is already registered")
		}
		return models.User{}, apperr.Internal("failed to register user", err)
	}

	logging.FromContext(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return Session{}, err
	}

	var (
		user models.User
		err  error
	)
	if in.Username != "" {
		user, err = s.store.Users.FindByUsername(ctx, in.Username)
	} else {
		user, err = s.store.Users.FindByEmail(ctx, in.Email)
	}
	if err != nil {
		return Session{}, translate(err, "log in", "user does not exist")
	}

	if err := auth.CheckPassword(user.Password, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Session{}, apperr.Unauthenticated("invalid user credentials")
		}
		return Session{}, apperr.Internal("failed to log in", err)
	}

	tokens, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return Session{}, apperr.Internal("failed to issue tokens", err)
	}
	return Session{User: user, Tokens: tokens}, nil
}

// Logout clears the caller's refresh token.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return translate(s.sessions.Revoke(ctx, userID), "log out", "user does not exist")
}

// Refresh rotates the token pair. The presented token must be the user's active one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, apperr.Unauthenticated("refresh token is missing")
	}
	tokens, user, err := s.sessions.Refresh(ctx, refreshToken)
	switch {
	case err == nil:
		return Session{User: user, Tokens: tokens}, nil
	case errors.Is(err, auth.ErrRefreshTokenExpired):
		return Session{}, apperr.Unauthenticated("refresh token is expired")
	case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, repositories.ErrNotFound):
		return Session{}, apperr.Unauthenticated("refresh token is invalid or has been used")
	default:
		return Session{}, apperr.Internal("failed to refresh session", err)
	}
}

// ChangePassword verifies the old password before storing the new one.
func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return translate(err, "change password", "user does not exist")
	}
	if err := auth.CheckPassword(user.Password, in.OldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.Invalid("old password is incorrect")
		}
		return apperr.Internal("failed to change password", err)
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return apperr.Internal("failed to change password", err)
	}
	user.Password = hash
	user.UpdatedAt = s.now()
	return translate(s.store.Users.Update(ctx, user), "change password", "user does not exist")
}

// CurrentUser returns the caller's account.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.User, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	return user, translate(err, "load user", "user does not exist")
}

// UserByID returns any account.
func (s *Service) UserByID(ctx context.Context, id string) (models.User, error) {
	if err := requireID(id, "user"); err != nil {
		return models.User{}, err
	}
	user, err := s.store.Users.FindByID(ctx, id)
	return user, translate(err, "load user", "user does not exist")
}

// UpdateAccount changes the caller's full name and/or email.
func (s *Service) UpdateAccount(ctx context.Context, userID string, in UpdateAccountInput) (models.User, error) {
	if in.FullName == nil && in.Email == nil {
		return models.User{}, apperr.Invalid("fullName or email is required")
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if err := s.check(in); err != nil {
		return models.User{}, err
	}

	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err, "update account", "user does not exist")
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	user.UpdatedAt = s.now()

	if err := s.store.Users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("email is already registered")
		}
		return models.User{}, translate(err, "update account", "user does not exist")
	}
	return user, nil
}

// UpdateBio replaces the caller's bio.
func (s *Service) UpdateBio(ctx context.Context, userID string, in UpdateBioInput) (models.User, error) {
	in.Bio = strings.TrimSpace(in.Bio)
	if err := s.check(in); err != nil {
		return models.User{}, err
	}
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err, "update bio", "user does not exist")
	}
	user.Bio = in.Bio
	user.UpdatedAt = s.now()
	if err := s.store.Users.Update(ctx, user); err != nil {
		return models.User{}, translate(err, "update bio", "user does not exist")
	}
	return user, nil
}

// UpdateAvatar uploads a new avatar and schedules removal of the old one.
func (s *Service) UpdateAvatar(ctx context.Context, userID, localPath string) (models.User, error) {
	return s.replaceUserImage(ctx, userID, localPath, "avatar", func(u *models.User, url, id string) string {
		old := u.AvatarID
		u.Avatar, u.AvatarID = url, id
		return old
	})
}

// UpdateCoverImage uploads a new cover image and schedules removal of the old one.
func (s *Service) UpdateCoverImage(ctx context.Context, userID, localPath string) (models.User, error) {
	return s.replaceUserImage(ctx, userID, localPath, "cover image", func(u *models.User, url, id string) string {
		old := u.CoverImageID
		u.CoverImage, u.CoverImageID = url, id
		return old
	})
}

// replaceUserImage swaps one of the user's images. set stores the new asset and returns the old external ID.
func (s *Service) replaceUserImage(ctx context.Context, userID, localPath, what string, set func(u *models.User, url, id string) string) (models.User, error) {
	if localPath == "" {
		return models.User{}, apperr.Invalid("%s file is missing", what)
	}
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, translate(err, "update "+what, "user does not exist")
	}

	asset, err := s.upload(ctx, localPath, what)
	if err != nil {
		return models.User{}, err
	}
	if asset.URL == "" {
		s.discard(ctx, asset.ExternalID)
		return models.User{}, apperr.Internal("failed to upload "+what, errors.New("storage returned no url"))
	}

	old := set(&user, asset.URL, asset.ExternalID)
	user.UpdatedAt = s.now()
	if err := s.store.Users.Update(ctx, user); err != nil {
		s.discard(ctx, asset.ExternalID)
		return models.User{}, translate(err, "update "+what, "user does not exist")
	}

	s.discard(ctx, old)
	return user, nil
}

// ClearWatchHistory empties the caller's watch history.
func (s *Service) ClearWatchHistory(ctx context.Context, userID string) error {
	return translate(s.store.Users.ClearWatchHistory(ctx, userID, s.now()), "clear watch history", "user does not exist")
}
