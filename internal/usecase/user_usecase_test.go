package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
)

func newUserUC() (domain.UserUseCase, *fakeUserRepo) {
	repo := newFakeUserRepo()
	return NewUserUseCase(repo, fakeTokens{}, testLogger()), repo
}

func register(t *testing.T, uc domain.UserUseCase) *domain.AuthResponse {
	t.Helper()
	resp, err := uc.Register(context.Background(), domain.RegisterInput{
		FullName: "Ana Mora",
		Email:    " Ana@Example.com ",
		Password: "secret1",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	uc, repo := newUserUC()

	resp := register(t, uc)
	assert.Equal(t, "ana@example.com", resp.Email)
	assert.Equal(t, domain.RoleUser, resp.Role)
	assert.Equal(t, "token-for-ana@example.com", resp.AccessToken)

	stored := repo.users[resp.ID]
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestRegister_Validation(t *testing.T) {
	uc, _ := newUserUC()

	cases := map[string]domain.RegisterInput{
		"no name":        {Email: "a@b.co", Password: "secret1"},
		"bad email":      {FullName: "A", Email: "nope", Password: "secret1"},
		"short password": {FullName: "A", Email: "a@b.co", Password: "12345"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Register(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	uc, _ := newUserUC()
	register(t, uc)

	_, err := uc.Register(context.Background(), domain.RegisterInput{FullName: "B", Email: "ana@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	uc, _ := newUserUC()
	register(t, uc)

	_, errUnknown := uc.Login(context.Background(), "ghost@example.com", "secret1")
	_, errWrong := uc.Login(context.Background(), "ana@example.com", "wrong-pass")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.ErrorIs(t, errUnknown, domain.ErrUnauthorized)
	assert.ErrorIs(t, errWrong, domain.ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, "invalid credentials", errWrong.Error())
}

func TestLogin_SuccessAndInactive(t *testing.T) {
	uc, repo := newUserUC()
	resp := register(t, uc)

	ok, err := uc.Login(context.Background(), "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, resp.ID, ok.ID)

	repo.users[resp.ID].Status = domain.StatusInactive
	_, err = uc.Login(context.Background(), "ana@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestChangePassword(t *testing.T) {
	uc, _ := newUserUC()
	resp := register(t, uc)

	err := uc.ChangePassword(context.Background(), resp.ID, "wrong", "another1")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "current password incorrect", err.Error())

	err = uc.ChangePassword(context.Background(), resp.ID, "secret1", "short")
	assert.Equal(t, "new password must be at least 6 characters", err.Error())

	require.NoError(t, uc.ChangePassword(context.Background(), resp.ID, "secret1", "another1"))
	_, err = uc.Login(context.Background(), "ana@example.com", "another1")
	assert.NoError(t, err)
}

func TestProfile(t *testing.T) {
	uc, _ := newUserUC()
	resp := register(t, uc)

	phone := "8888-1111"
	empty := "  "
	profile, err := uc.UpdateProfile(context.Background(), resp.ID, domain.ProfileUpdate{Phone: &phone, FullName: &empty})
	require.NoError(t, err)
	assert.Equal(t, "8888-1111", profile.Phone)
	assert.Equal(t, "Ana Mora", profile.FullName)

	_, err = uc.GetProfile(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	uc, repo := newUserUC()

	require.NoError(t, uc.EnsureAdmin(context.Background(), "Admin@Shop.test", "admin123"))
	require.NoError(t, uc.EnsureAdmin(context.Background(), "admin@shop.test", "admin123"))

	require.Len(t, repo.users, 1)
	for _, u := range repo.users {
		assert.Equal(t, domain.RoleAdmin, u.Role)
		assert.Equal(t, "admin@shop.test", u.Email)
	}
}
