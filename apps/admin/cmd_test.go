package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/soma/core/user"
	emailsvc "github.com/trezcool/soma/services/email"
	dummydb "github.com/trezcool/soma/storage/database/dummy"
	"github.com/trezcool/soma/testutil"
)

func setup(t *testing.T) (*commandLine, user.Repository) {
	conf := testutil.NewConfig()
	usrRepo := dummydb.NewUserRepository(dummydb.Open())
	mailSvc := emailsvc.NewConsoleServiceMock(conf, testutil.Logger{T: t})

	return &commandLine{usrSvc: user.NewService(usrRepo, mailSvc, conf)}, usrRepo
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) run(t *testing.T, cli *commandLine) error {
	mockPassword(t, tt.pwd)
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	return err
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := migrateFunc
	t.Cleanup(func() { migrateFunc = orig })
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_course_tags", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli, usrRepo := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, usrRepo, "Ada Lovelace", "ada@soma.test", "Pa$$w0rd!", user.RoleStudent, false)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing name", args: []string{"adduser", "-email", "alan@soma.test"}, pwd: "secret", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "alan@soma.test", "-name", "Alan Turing"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-email", "alan@soma.test", "-name", "Alan Turing", "-role", "dean"}, pwd: "secret", wantErrStr: `invalid role "dean"`},
		{name: "weak password", args: []string{"adduser", "-email", "alan@soma.test", "-name", "Alan Turing"}, pwd: "secret", wantErrStr: "password must contain at least 8 characters"},
		{name: "password similar to name", args: []string{"adduser", "-email", "alan@soma.test", "-name", "Alan Turing"}, pwd: "AlanTuring", wantErrStr: "password cannot be similar to user attributes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}

	t.Run("create admin", func(t *testing.T) {
		tt := cliTest{args: []string{"adduser", "-email", " Alan@Soma.test ", "-name", "Alan Turing", "-admin"}, pwd: "Pa$$w0rd!"}
		require.NoError(t, tt.run(t, cli))

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{Email: "alan@soma.test"})
		require.NoError(t, err)
		assert.Equal(t, "Alan Turing", usr.Name)
		assert.Equal(t, user.RoleAdmin, usr.Role)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("Pa$$w0rd!"))
	})

	t.Run("update existing", func(t *testing.T) {
		tt := cliTest{args: []string{"adduser", "-email", existing.Email, "-name", "Ada King", "-role", "instructor"}, pwd: "N3wPa$$word"}
		require.NoError(t, tt.run(t, cli))

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
		require.NoError(t, err)
		assert.Equal(t, "Ada King", usr.Name)
		assert.Equal(t, user.RoleInstructor, usr.Role)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("N3wPa$$word"))
		assert.Equal(t, existing.TokenVersion+1, usr.TokenVersion)
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, usrRepo, "Ada Lovelace", "ada@soma.test", "Pa$$w0rd!", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", usr.Email}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@soma.test"}, pwd: "lol", wantErr: user.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, cli) })
	}

	t.Run("password similar to email", func(t *testing.T) {
		tt := cliTest{args: []string{"resetpassword", "-email", usr.Email}, pwd: usr.Email, wantErrStr: "password cannot be similar to user attributes"}
		require.Error(t, tt.run(t, cli))

		unchanged, err := usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.NoError(t, unchanged.CheckPassword("Pa$$w0rd!"))
		assert.Equal(t, usr.TokenVersion, unchanged.TokenVersion)
	})

	t.Run("reset", func(t *testing.T) {
		tt := cliTest{args: []string{"resetpassword", "-email", "ADA@soma.test"}, pwd: "N3wPa$$word"}
		require.NoError(t, tt.run(t, cli))

		refreshed, err := usrRepo.GetUser(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("N3wPa$$word"))
		assert.Equal(t, usr.TokenVersion+1, refreshed.TokenVersion)
	})
}
