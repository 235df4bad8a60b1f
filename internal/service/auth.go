package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"localmart/internal/auth"
	"localmart/internal/cache"
	"localmart/internal/logx"
	"localmart/internal/model"
	"localmart/internal/notify"
	"localmart/internal/repository"
)

type RegisterInput struct {
	Username    string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	FullName    string `json:"full_name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	Address     string `json:"address" validate:"omitempty,max=255"`
}

type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// AuthService handles accounts and credentials.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	VerifyEmail(ctx context.Context, token string) error
	// ForgotPassword never reveals whether the email exists.
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	users    repository.Repository[model.User]
	tokens   TokenIssuer
	cache    cache.Store
	notifier notify.Notifier
	log      *logx.Logger
}

func NewAuthService(d Deps) AuthService {
	return &authService{
		users:    d.Repos.Users,
		tokens:   d.Tokens,
		cache:    d.Cache,
		notifier: d.Notifier,
		log:      d.logger(),
	}
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if len(username) < 3 || email == "" || len(in.Password) < 6 {
		return nil, invalid("username, email and a password of at least 6 characters are required")
	}

	taken, err := exists(ctx, s.users, repository.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("username already taken")
	}
	taken, err = exists(ctx, s.users, repository.Filter{"email": email})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := model.Now()
	u := &model.User{
		ID:           model.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		Role:         model.RoleBuyer,
		Status:       model.UserActive,
		LoyaltyTier:  model.TierBronze,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// A concurrent registration can pass the checks above and lose on the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return nil, conflict("username or email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.Key(cache.KeyEmailVerify, token), u.ID, cache.TTLEmailVerify); err != nil {
		s.log.Error("auth", "verify_token_store_failed", err, map[string]any{"user_id": u.ID})
	} else {
		notifyUser(ctx, s.notifier, s.log, notify.Message{
			UserID:      u.ID,
			Title:       "Verify your email",
			Message:     "Use this code to verify your email: " + token,
			Type:        model.NotifyAccount,
			ReferenceID: u.ID,
		})
	}
	return u, nil
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	login := strings.TrimSpace(in.Login)
	f := repository.Filter{"username": login}
	if strings.Contains(login, "@") {
		f = repository.Filter{"email": strings.ToLower(login)}
	}
	u, err := s.users.FindOne(ctx, f)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newErr(ErrUnauthorized, "invalid credentials")
		}
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, in.Password); err != nil {
		return nil, newErr(ErrUnauthorized, "invalid credentials")
	}
	if u.Status != model.UserActive {
		return nil, forbidden("account is %s", strings.ToLower(u.Status))
	}

	token, exp, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.cache.GetDel(ctx, cache.Key(cache.KeyEmailVerify, token))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return invalid("verification token is invalid or expired")
		}
		return err
	}
	if err := s.users.Update(ctx, userID, repository.Filter{"email_verified": true, "updated_at": model.Now()}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user")
		}
		return err
	}
	return nil
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.FindOne(ctx, repository.Filter{"email": strings.ToLower(strings.TrimSpace(email))})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.Status != model.UserActive {
		return nil
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, cache.Key(cache.KeyPasswordReset, token), u.ID, cache.TTLPasswordReset); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}
	notifyUser(ctx, s.notifier, s.log, notify.Message{
		UserID:  u.ID,
		Title:   "Password reset",
		Message: "Use this code to reset your password within 15 minutes: " + token,
		Type:    model.NotifyAccount,
	})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return invalid("password must be at least 6 characters")
	}
	userID, err := s.cache.GetDel(ctx, cache.Key(cache.KeyPasswordReset, token))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return invalid("reset token is invalid or expired")
		}
		return err
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *authService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return invalid("password must be at least 6 characters")
	}
	u, err := lookup(ctx, s.users, userID, "user")
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(u.PasswordHash, oldPassword); err != nil {
		return invalid("current password is incorrect")
	}
	return s.setPassword(ctx, u.ID, newPassword)
}

func (s *authService) setPassword(ctx context.Context, userID, pw string) error {
	hash, err := auth.HashPassword(pw)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.Update(ctx, userID, repository.Filter{"password_hash": hash, "updated_at": model.Now()}); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user")
		}
		return err
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	return lookup(ctx, s.users, userID, "user")
}
