package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
)

const defaultBanReason = "No reason provided"

// RegisterInput is the payload of a sign-up.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=3,max=30"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6,password"`
	AvatarURL string `json:"avatarUrl" validate:"omitempty,uri"`
	GithubID  string `json:"githubId"`
}

// LoginInput is the payload of a sign-in.
type LoginInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginResult carries the issued token and the signed-in user.
type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// ProfileInput changes the caller's own profile. Nil or empty fields are
// left untouched, except Bio which may be cleared.
type ProfileInput struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"-"`
}

// UserUpdate is an admin edit of any account.
type UserUpdate struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=30"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Role      *string `json:"role" validate:"omitempty,oneof=user admin"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty"`
	IsActive  *bool   `json:"isActive"`
}

// BanInput bans a user for Duration days, or permanently when Duration is 0.
type BanInput struct {
	Duration int    `json:"duration" validate:"gte=0"`
	Reason   string `json:"reason" validate:"max=500"`
}

// UserService manages accounts and sessions.
type UserService struct {
	users  store.UserStore
	tokens *auth.TokenManager
	now    Clock
}

// NewUserService creates a UserService.
func NewUserService(users store.UserStore, tokens *auth.TokenManager) *UserService {
	return &UserService{users: users, tokens: tokens, now: systemClock}
}

// Register creates a regular account.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.create(ctx, in, domain.RoleUser)
}

// CreateAdmin creates an account with the admin role.
func (s *UserService) CreateAdmin(ctx context.Context, in RegisterInput) (domain.User, error) {
	return s.create(ctx, in, domain.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, in RegisterInput, role string) (domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := auth.Validate(in); err != nil {
		return domain.User{}, fail(ErrInvalidInput, "%s", err.Error())
	}

	if _, err := s.users.UserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, fail(ErrConflict, "Email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	if _, err := s.users.UserByUsername(ctx, in.Username); err == nil {
		return domain.User{}, fail(ErrConflict, "Username already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		AvatarURL:    lo.Ternary(in.AvatarURL == "", domain.DefaultAvatarURL, in.AvatarURL),
		Role:         role,
		IsActive:     true,
		GithubID:     in.GithubID,
	}
	if err := s.users.CreateUser(ctx, &u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.User{}, fail(ErrConflict, "Username or email already exists")
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login checks credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	if err := auth.Validate(in); err != nil {
		return LoginResult{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	u, err := s.users.UserByUsername(ctx, strings.TrimSpace(in.Username))
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, fail(ErrInvalidCredentials, "Invalid username or password")
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}
	ok, err := auth.ComparePassword(in.Password, u.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return LoginResult{}, fail(ErrInvalidCredentials, "Invalid username or password")
	}

	now := s.now()
	if u.IsBanned(now) {
		return LoginResult{}, &BanError{Message: u.BanMessage(now), Ban: u.Ban}
	}
	if !u.IsActive {
		return LoginResult{}, fail(ErrInactive, "Account is deactivated")
	}

	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, fmt.Errorf("generate token: %w", err)
	}
	return LoginResult{Token: token, User: u}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return domain.User{}, fail(ErrInvalidCredentials, "Not authorized")
	}
	u, err := s.users.UserByID(ctx, claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fail(ErrInvalidCredentials, "Not authorized, user not found")
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.IsActive {
		return domain.User{}, fail(ErrInactive, "Account is deactivated")
	}
	return u, nil
}

// Profile returns the account with the given id.
func (s *UserService) Profile(ctx context.Context, id string) (domain.User, error) {
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	return u, nil
}

// UpdateProfile applies the sent fields to the caller's own account.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.User, in ProfileInput) (domain.User, error) {
	if err := auth.Validate(in); err != nil {
		return domain.User{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	u, err := s.users.UserByID(ctx, actor.ID)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	if v := strings.TrimSpace(lo.FromPtr(in.Username)); v != "" {
		u.Username = v
	}
	if v := strings.ToLower(strings.TrimSpace(lo.FromPtr(in.Email))); v != "" {
		u.Email = v
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if v := lo.FromPtr(in.AvatarURL); v != "" {
		u.AvatarURL = v
	}
	return s.save(ctx, u)
}

func (s *UserService) save(ctx context.Context, u domain.User) (domain.User, error) {
	if err := s.users.UpdateUser(ctx, u); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return domain.User{}, fail(ErrConflict, "Username or email already exists")
		case errors.Is(err, store.ErrNotFound):
			return domain.User{}, fail(ErrNotFound, "User not found")
		}
		return domain.User{}, fmt.Errorf("update user: %w", err)
	}
	return s.Profile(ctx, u.ID)
}

// ListUsers returns every regular account, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx, domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns any account by id.
func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.Profile(ctx, id)
}

// UpdateUser applies an admin edit.
func (s *UserService) UpdateUser(ctx context.Context, id string, in UserUpdate) (domain.User, error) {
	if err := auth.Validate(in); err != nil {
		return domain.User{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	if v := strings.TrimSpace(lo.FromPtr(in.Username)); v != "" {
		u.Username = v
	}
	if v := strings.ToLower(strings.TrimSpace(lo.FromPtr(in.Email))); v != "" {
		u.Email = v
	}
	if v := lo.FromPtr(in.Role); v != "" {
		u.Role = v
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if v := lo.FromPtr(in.AvatarURL); v != "" {
		u.AvatarURL = v
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	return s.save(ctx, u)
}

// DeleteUser removes an account. Content it authored is kept.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return notFound(err, "User")
	}
	return nil
}

// Activate re-enables an account.
func (s *UserService) Activate(ctx context.Context, id string) (domain.User, error) {
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	u.IsActive = true
	return s.save(ctx, u)
}

// Deactivate disables an account. Admins cannot be deactivated.
func (s *UserService) Deactivate(ctx context.Context, id string) (domain.User, error) {
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	if u.IsAdmin() {
		return domain.User{}, fail(ErrForbidden, "Cannot deactivate admin users")
	}
	u.IsActive = false
	return s.save(ctx, u)
}

// Ban bans a user. Admins cannot be banned.
func (s *UserService) Ban(ctx context.Context, id string, in BanInput) (domain.User, error) {
	if err := auth.Validate(in); err != nil {
		return domain.User{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	if u.IsAdmin() {
		return domain.User{}, fail(ErrForbidden, "Cannot ban admin users")
	}
	u.Ban = domain.Ban{
		IsBanned: true,
		Reason:   lo.Ternary(strings.TrimSpace(in.Reason) == "", defaultBanReason, in.Reason),
	}
	if in.Duration > 0 {
		expires := s.now().Add(time.Duration(in.Duration) * 24 * time.Hour)
		u.Ban.Expires = &expires
	}
	return s.save(ctx, u)
}

// Unban lifts any ban.
func (s *UserService) Unban(ctx context.Context, id string) (domain.User, error) {
	u, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.User{}, notFound(err, "User")
	}
	u.Ban = domain.Ban{}
	return s.save(ctx, u)
}
