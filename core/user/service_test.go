package user_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/user"
	emailsvc "github.com/trezcool/soma/services/email"
	dummydb "github.com/trezcool/soma/storage/database/dummy"
	"github.com/trezcool/soma/testutil"
)

const testPwd = "Pa$$w0rd!"

var resetLinkRe = regexp.MustCompile(`/password-reset/([^/\s]+)/(\S+)`)

func setup(t *testing.T) (*user.Service, user.Repository, *emailsvc.ConsoleServiceMock) {
	conf := testutil.NewConfig()
	repo := dummydb.NewUserRepository(dummydb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, testutil.Logger{T: t})
	return user.NewService(repo, mailSvc, conf), repo, mailSvc
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want a *core.ValidationError; got %v", err)
	return vErr.FieldsMap()
}

func TestService_Create(t *testing.T) {
	svc, repo, mailSvc := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{Name: "Ada Lovelace", Email: "ada@soma.test", Password: testPwd})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword(testPwd))

	saved, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, usr.Email, saved.Email)

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome to Soma", sent[0].Subject)
	assert.Equal(t, "ada@soma.test", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Your student account (ada@soma.test) is ready.")

	err = svc.CheckUniqueness(ctx, "ADA@soma.test")
	assert.Equal(t, map[string]string{"email": "a user with this email already exists"}, fieldErrors(t, err))
	assert.NoError(t, svc.CheckUniqueness(ctx, "ada@soma.test", usr))
}

func TestService_Authenticate(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	active := testutil.CreateUser(t, repo, "Ada Lovelace", "ada@soma.test", testPwd, user.RoleStudent, true)
	testutil.CreateUser(t, repo, "Bob Smith", "bob@soma.test", testPwd, user.RoleStudent, false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "lol@soma.test", pwd: testPwd, wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: "ada@soma.test", pwd: "lol", wantErr: user.ErrInvalidCredentials},
		{name: "deactivated", email: "bob@soma.test", pwd: testPwd, wantErr: user.ErrAccountDeactivated},
		{name: "case-insensitive email", email: " ADA@soma.test", pwd: testPwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, active.ID, usr.ID)
			assert.False(t, usr.LastLogin.IsZero())
		})
	}
}

func TestService_SetPassword(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ada Lovelace", "ada@soma.test", testPwd, user.RoleStudent, true)

	updated, err := svc.SetPassword(ctx, usr, "n3w Pa$$word")
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("n3w Pa$$word"))
	assert.Equal(t, usr.TokenVersion+1, updated.TokenVersion)

	loggedOut, err := svc.InvalidateTokens(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.TokenVersion+2, loggedOut.TokenVersion)

	_, err = svc.InvalidateTokens(ctx, "lol")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestService_PasswordReset(t *testing.T) {
	svc, repo, mailSvc := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Ada Lovelace", "ada@soma.test", testPwd, user.RoleStudent, true)
	testutil.CreateUser(t, repo, "Bob Smith", "bob@soma.test", testPwd, user.RoleStudent, false)

	assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "lol@soma.test"))
	assert.Equal(t, user.ErrAccountDeactivated, svc.RequestPasswordReset(ctx, "bob@soma.test"))
	assert.Empty(t, mailSvc.SentMessages())

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@soma.test"))
	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Password Reset", sent[0].Subject)
	match := resetLinkRe.FindStringSubmatch(sent[0].TextContent)
	require.Len(t, match, 3)
	uid, token := match[1], match[2]
	assert.Equal(t, user.EncodeUID(usr), uid)

	newPwd := "N3wPa$$word"
	reset := func(uid, token, pwd string) (user.User, error) {
		return svc.ResetPassword(ctx, user.ResetUserPassword{Token: token, UID: uid, Password: pwd, PasswordConfirm: pwd})
	}

	_, err := reset("lol", token, newPwd)
	assert.Equal(t, map[string]string{"uid": "invalid password reset link"}, fieldErrors(t, err))

	_, err = reset(uid, "lol-lol", newPwd)
	assert.Equal(t, map[string]string{"token": "invalid token: please request a new one"}, fieldErrors(t, err))

	// the new password is checked against the account attributes
	_, err = reset(uid, token, "Ada@Soma.test")
	assert.Equal(t, map[string]string{"password": "password cannot be similar to user attributes"}, fieldErrors(t, err))
	_, err = reset(uid, token, "adalovelace")
	assert.Equal(t, map[string]string{"password": "password cannot be similar to user attributes"}, fieldErrors(t, err))

	updated, err := reset(uid, token, newPwd)
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword(newPwd))
	assert.Equal(t, usr.TokenVersion+1, updated.TokenVersion)

	// tokens are single-use
	_, err = reset(uid, token, newPwd)
	assert.Equal(t, map[string]string{"token": "invalid token: please request a new one"}, fieldErrors(t, err))
}

func TestService_UpdateOrCreate(t *testing.T) {
	svc, repo, mailSvc := setup(t)
	ctx := context.Background()

	created, err := svc.UpdateOrCreate(ctx, user.User{Name: "Alan Turing", Email: "alan@soma.test", Role: user.RoleAdmin, IsActive: true}, "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Empty(t, mailSvc.SentMessages())

	created.Name = "Alan M. Turing"
	updated, err := svc.UpdateOrCreate(ctx, created, "")
	require.NoError(t, err)
	assert.Equal(t, "Alan M. Turing", updated.Name)
	assert.Equal(t, created.TokenVersion, updated.TokenVersion)

	saved, err := repo.GetUser(ctx, user.GetFilter{ID: created.ID})
	require.NoError(t, err)
	assert.NoError(t, saved.CheckPassword("secret"))
}
