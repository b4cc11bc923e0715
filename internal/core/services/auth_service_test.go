package services

import (
	"context"
	"os"
	"testing"

	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/config"
	"insurehub/internal/core/domain"
	"insurehub/internal/pkg/password"
	"insurehub/internal/pkg/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	password.Cost = bcrypt.MinCost
	os.Exit(m.Run())
}

var testConfig = &config.Config{
	AppMode: "dev",
	JWT: config.JWTConfig{
		Secret:           "access-secret",
		RefreshSecret:    "refresh-secret",
		AccessTokenMins:  15,
		RefreshTokenDays: 7,
	},
}

type identity struct {
	auth  *AuthService
	users *UserService
	repo  repositories.UserRepository
	roles repositories.RoleRepository
}

func newIdentity(t *testing.T) *identity {
	t.Helper()
	db := testdb.Open(t)
	userRepo := repositories.NewUserRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	require.NoError(t, roleRepo.EnsureDefaults(context.Background()))

	return &identity{
		auth:  NewAuthService(userRepo, roleRepo, repositories.NewRefreshTokenRepository(db), testConfig),
		users: NewUserService(userRepo, roleRepo),
		repo:  userRepo,
		roles: roleRepo,
	}
}

func (id *identity) register(t *testing.T, username string) *AuthResponse {
	t.Helper()
	resp, err := id.auth.Register(context.Background(), &RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	id := newIdentity(t)

	resp := id.register(t, "alice")
	assert.Equal(t, []string{"User"}, resp.User.Roles)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	_, err := id.auth.Register(ctx, &RegisterInput{Username: "alice", Email: "other@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = id.auth.Login(ctx, &LoginInput{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = id.auth.Login(ctx, &LoginInput{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := id.auth.Login(ctx, &LoginInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.NotNil(t, login.User.LastLoginAt)
}

func TestRegister_Validation(t *testing.T) {
	id := newIdentity(t)

	_, err := id.auth.Register(context.Background(), &RegisterInput{Username: "al", Email: "not-an-email", Password: "short"})
	require.ErrorIs(t, err, domain.ErrValidation)

	e, _ := domain.AsError(err)
	assert.Contains(t, e.Fields, "username")
	assert.Contains(t, e.Fields, "email")
	assert.Contains(t, e.Fields, "password")
}

func TestResolveActor(t *testing.T) {
	ctx := context.Background()
	id := newIdentity(t)
	resp := id.register(t, "bob")

	actor, err := id.auth.ResolveActor(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, actor.UserID)
	assert.True(t, actor.Roles.Has(domain.RoleUser))
	assert.False(t, actor.IsAdmin())

	_, err = id.auth.ResolveActor(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// role changes apply to tokens already issued
	_, err = id.users.ReplaceRoles(ctx, resp.User.ID, 999, []string{"Admin", "User"})
	require.NoError(t, err)
	actor, err = id.auth.ResolveActor(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())

	// deactivation locks the user out
	inactive := false
	_, err = id.users.UpdateUserByAdmin(ctx, resp.User.ID, 999, &UpdateUserByAdminInput{IsActive: &inactive})
	require.NoError(t, err)
	_, err = id.auth.ResolveActor(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = id.auth.Login(ctx, &LoginInput{Username: "bob", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	id := newIdentity(t)
	resp := id.register(t, "carol")

	rotated, err := id.auth.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, rotated.RefreshToken)

	_, err = id.auth.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	require.NoError(t, id.auth.Logout(ctx, rotated.RefreshToken))
	_, err = id.auth.RefreshToken(ctx, rotated.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = id.auth.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutAll(t *testing.T) {
	ctx := context.Background()
	id := newIdentity(t)
	first := id.register(t, "dave")
	second, err := id.auth.Login(ctx, &LoginInput{Username: "dave", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, id.auth.LogoutAll(ctx, first.User.ID))

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		_, err := id.auth.RefreshToken(ctx, token)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	}
}

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()
	id := newIdentity(t)

	adminRoles, err := id.roles.GetByNames(ctx, []string{"Admin"})
	require.NoError(t, err)
	root := &models.User{Username: "root", Email: "root@example.com", Password: "x", IsActive: true, Roles: adminRoles}
	require.NoError(t, id.repo.Create(ctx, root))
	eve := id.register(t, "eve")

	_, err = id.users.ReplaceRoles(ctx, root.ID, root.ID, []string{"User"})
	assert.ErrorIs(t, err, ErrCannotDropOwnAdminRole)

	_, err = id.users.ReplaceRoles(ctx, eve.User.ID, root.ID, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = id.users.ReplaceRoles(ctx, eve.User.ID, root.ID, []string{"SubAdmin"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	updated, err := id.users.ReplaceRoles(ctx, eve.User.ID, root.ID, []string{"manager", "User"})
	require.NoError(t, err)
	assert.Equal(t, []string{"User", "Manager"}, updated.Roles)

	name := "Eve Example"
	email := "root@example.com"
	_, err = id.users.UpdateUserByAdmin(ctx, eve.User.ID, root.ID, &UpdateUserByAdminInput{Email: &email})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	profile, err := id.users.UpdateProfile(ctx, eve.User.ID, &UpdateProfileInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Eve Example", profile.FullName)

	inactive := false
	_, err = id.users.UpdateUserByAdmin(ctx, root.ID, root.ID, &UpdateUserByAdminInput{IsActive: &inactive})
	assert.ErrorIs(t, err, ErrCannotDeactivateSelf)

	assert.ErrorIs(t, id.users.DeleteUser(ctx, root.ID, root.ID), ErrCannotDeleteSelf)
	require.NoError(t, id.users.DeleteUser(ctx, eve.User.ID, root.ID))
	assert.ErrorIs(t, id.users.DeleteUser(ctx, eve.User.ID, root.ID), ErrUserNotFoundSvc)

	_, err = id.users.GetUserByID(ctx, eve.User.ID)
	assert.ErrorIs(t, err, ErrUserNotFoundSvc)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	id := newIdentity(t)
	frank := id.register(t, "frank")

	err := id.users.ChangePassword(ctx, frank.User.ID, &ChangePasswordInput{OldPassword: "nope", NewPassword: "newpassword1"})
	assert.ErrorIs(t, err, ErrOldPasswordWrong)

	err = id.users.ChangePassword(ctx, frank.User.ID, &ChangePasswordInput{OldPassword: "password123", NewPassword: "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, id.users.ChangePassword(ctx, frank.User.ID, &ChangePasswordInput{OldPassword: "password123", NewPassword: "newpassword1"}))

	_, err = id.auth.Login(ctx, &LoginInput{Username: "frank", Password: "newpassword1"})
	assert.NoError(t, err)
}
