package auth

import (
	"context"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

// UserStore is the persistence the account service needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

type Service struct {
	users  UserStore
	tokens *TokenManager
}

func NewService(users UserStore, tokens *TokenManager) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (in *RegisterInput) validate() error {
	v := &domain.ValidationError{}
	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if !domain.ValidEmail(in.Email) {
		v.Add("email", "Please provide a valid email")
	}
	if len(in.Password) < domain.MinPasswordLength {
		v.Add("password", "Password must be at least 6 characters")
	}
	if in.FirstName == "" {
		v.Add("firstName", "First name is required")
	}
	if in.LastName == "" {
		v.Add("lastName", "Last name is required")
	}
	return v.Err()
}

// Session is a signed-in user with its access token.
type Session struct {
	Token string
	User  *domain.User
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflict("User with this email already exists")
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         domain.RoleUser,
		Avatar:       domain.AvatarFor(in.FirstName, in.LastName),
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = domain.NormalizeEmail(email)
	v := &domain.ValidationError{}
	if !domain.ValidEmail(email) {
		v.Add("email", "Please provide a valid email")
	}
	if password == "" {
		v.Add("password", "Password is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !CheckPassword(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.Unauthorized("Account is deactivated")
	}
	return s.session(user)
}

func (s *Service) session(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to an active user.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, domain.Unauthorized("Invalid token")
	}
	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, domain.Unauthorized("Invalid token")
	}
	return user, nil
}

type ProfileInput struct {
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Phone     string          `json:"phone"`
	Address   *domain.Address `json:"address"`
}

// UpdateProfile changes only the non-empty fields of in.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.NewNotFound("user")
	}

	if v := strings.TrimSpace(in.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.TrimSpace(in.Phone); v != "" {
		user.Phone = v
	}
	if in.Address != nil {
		user.Address = domain.Address{
			Street:     strings.TrimSpace(in.Address.Street),
			City:       strings.TrimSpace(in.Address.City),
			PostalCode: strings.TrimSpace(in.Address.PostalCode),
		}
	}
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	v := &domain.ValidationError{}
	if current == "" {
		v.Add("currentPassword", "Current password is required")
	}
	if len(next) < domain.MinPasswordLength {
		v.Add("newPassword", "New password must be at least 6 characters")
	}
	if err := v.Err(); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.NewNotFound("user")
	}
	if !CheckPassword(current, user.PasswordHash) {
		return domain.Unauthorized("Current password is incorrect")
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}
