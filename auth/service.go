// Package auth registers and authenticates users and issues their tokens.
package auth

import (
	"context"
	"errors"
	"strings"

	"team-task-manager/apperr"
	"team-task-manager/models"
	"team-task-manager/validation"
)

// UserRepository is the user store. Create reports a taken email as
// models.ErrDuplicate.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	ListActive(ctx context.Context, role models.Role) ([]*models.User, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,userrole"`
}

var registerMessages = map[string]string{
	"name":     "Name must be between 2 and 50 characters",
	"email":    "Please provide a valid email",
	"password": "Password must be between 6 and 72 characters long",
	"role":     "Role must be Admin or Member",
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"email":    "Please provide a valid email",
	"password": "Password is required",
}

// Session is returned by Register and Login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Member is the listing form of a user.
type Member struct {
	ID    string      `json:"_id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role,omitempty"`
}

type Service struct {
	users  UserRepository
	tokens *JWTManager
	hasher *PasswordHasher
}

func NewService(users UserRepository, tokens *JWTManager, hasher *PasswordHasher) *Service {
	return &Service{users: users, tokens: tokens, hasher: hasher}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in, registerMessages); err != nil {
		return nil, err
	}

	role := models.RoleMember
	if in.Role != "" {
		role = models.Role(in.Role)
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}
	u, err := s.users.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	if errors.Is(err, models.ErrDuplicate) {
		return nil, apperr.Conflict("User already exists")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to create user")
	}
	return s.session(u)
}

// Login never reveals whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(&in, loginMessages); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.Validation("Invalid credentials")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	if !u.IsActive || !s.hasher.Verify(in.Password, u.PasswordHash) {
		return nil, apperr.Validation("Invalid credentials")
	}
	return s.session(u)
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Generate(u)
	if err != nil {
		return nil, apperr.Internal(err, "failed to issue token")
	}
	return &Session{Token: token, User: u}, nil
}

// Authenticate resolves a bearer token to the current, active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperr.Unauthorized("Token is not valid")
	}
	u, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.Unauthorized("Token is not valid")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("Account is deactivated")
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load user")
	}
	return u, nil
}

// ListUsers returns every active user sorted by name.
func (s *Service) ListUsers(ctx context.Context) ([]Member, error) {
	return s.list(ctx, "", true)
}

// ListMembers returns active Members sorted by name, without their role.
func (s *Service) ListMembers(ctx context.Context) ([]Member, error) {
	return s.list(ctx, models.RoleMember, false)
}

func (s *Service) list(ctx context.Context, role models.Role, withRole bool) ([]Member, error) {
	users, err := s.users.ListActive(ctx, role)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list users")
	}
	out := make([]Member, 0, len(users))
	for _, u := range users {
		m := Member{ID: u.ID, Name: u.Name, Email: u.Email}
		if withRole {
			m.Role = u.Role
		}
		out = append(out, m)
	}
	return out, nil
}
