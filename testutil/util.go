// Package testutil holds the helpers shared by the tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/soma/core"
	"github.com/trezcool/soma/core/user"
)

// NewConfig returns the configuration used by the tests.
func NewConfig() *core.Config {
	return &core.Config{
		Env:                       "TEST",
		Build:                     "test",
		TestMode:                  true,
		AppName:                   "Soma",
		SecretKey:                 "test secret",
		FrontendBaseURL:           "http://localhost:19006",
		DefaultFromEmailName:      "Soma",
		DefaultFromEmailAddress:   "noreply@soma.test",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Address:                   ":8000",
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 30 * 24 * time.Hour,
			BodyLimit:                 "64K",
			DisableReqLogs:            true,
		},
		Recommendation: core.RecommendationConfig{
			Provider:    "dummy",
			Model:       "gpt-4o-mini",
			MaxTokens:   300,
			Temperature: 0.7,
			MaxRequests: 250,
			CacheSize:   512,
			CacheTTL:    time.Hour,
		},
	}
}

// Logger is a core.Logger writing to the test log.
type Logger struct {
	T testing.TB
}

var _ core.Logger = Logger{}

func (l Logger) log(level, msg string, args []interface{}) {
	l.T.Helper()
	l.T.Logf("%s: %s %s", level, msg, fmt.Sprint(args...))
}

func (l Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}
