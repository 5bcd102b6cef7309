package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

type fakeUsers struct {
	byID map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]*domain.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.Conflict("User with this email already exists")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *domain.User) error {
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	f.byID[id].PasswordHash = hash
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUsers) {
	t.Helper()
	tokens, err := NewTokenManager("test-secret", "", 0)
	require.NoError(t, err)
	users := newFakeUsers()
	return NewService(users, tokens), users
}

func register(t *testing.T, svc *Service, email string) *Session {
	t.Helper()
	session, err := svc.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  "secret1",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return session
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a user with defaults and a token", func(t *testing.T) {
		svc, _ := newTestService(t)
		session := register(t, svc, " Ada@Example.com ")

		assert.Equal(t, "ada@example.com", session.User.Email)
		assert.Equal(t, domain.RoleUser, session.User.Role)
		assert.True(t, session.User.IsActive)
		assert.Contains(t, session.User.Avatar, "name=Ada+Lovelace")
		assert.NotEqual(t, "secret1", session.User.PasswordHash)
		assert.NotEmpty(t, session.Token)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		svc, _ := newTestService(t)
		register(t, svc, "ada@example.com")

		_, err := svc.Register(ctx, RegisterInput{
			Email: "ADA@example.com", Password: "secret1", FirstName: "A", LastName: "L",
		})
		require.ErrorIs(t, err, domain.ErrAlreadyExists)
		assert.Equal(t, "User with this email already exists", err.Error())
	})

	t.Run("collects every invalid field", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Register(ctx, RegisterInput{Email: "nope", Password: "123"})

		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Len(t, validation.Fields, 4)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	registered := register(t, svc, "ada@example.com")

	t.Run("accepts correct credentials", func(t *testing.T) {
		session, err := svc.Login(ctx, "ada@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, registered.User.ID, session.User.ID)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		_, err := svc.Login(ctx, "ada@example.com", "wrong-pass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

		_, err = svc.Login(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("deactivated accounts cannot sign in", func(t *testing.T) {
		users.byID[registered.User.ID].IsActive = false
		defer func() { users.byID[registered.User.ID].IsActive = true }()

		_, err := svc.Login(ctx, "ada@example.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)
	session := register(t, svc, "ada@example.com")

	user, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	_, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	delete(users.byID, session.User.ID)
	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	session := register(t, svc, "ada@example.com")

	user, err := svc.UpdateProfile(ctx, session.User.ID, ProfileInput{
		LastName: "King",
		Address:  &domain.Address{City: " London "},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, "King", user.LastName)
	assert.Equal(t, "London", user.Address.City)
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	session := register(t, svc, "ada@example.com")

	err := svc.ChangePassword(ctx, session.User.ID, "wrong", "newsecret")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, "Current password is incorrect", err.Error())

	err = svc.ChangePassword(ctx, session.User.ID, "secret1", "short")
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, session.User.ID, "secret1", "newsecret"))
	_, err = svc.Login(ctx, "ada@example.com", "newsecret")
	assert.NoError(t, err)
}
