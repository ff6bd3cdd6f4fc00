package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env             string // DEV (local; default), TEST, QA, PROD
		Build           string
		Debug           bool
		TestMode        bool
		AppName         string
		SecretKey       string
		WorkDir         string
		FrontendBaseURL string

		DefaultFromEmailName    string
		DefaultFromEmailAddress string
		SendgridApiKey          string
		RollbarToken            string

		PasswordResetTimeoutDelta time.Duration

		Server         ServerConfig
		Database       DatabaseConfig
		Recommendation RecommendationConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ReadTimeout               time.Duration
		WriteTimeout              time.Duration
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		CORSOrigins               []string // FrontendBaseURL when empty
		BodyLimit                 string   // e.g. 2M; no limit when empty
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RecommendationConfig struct {
		Provider      string // openai | dummy
		ApiKey        string
		BaseUrl       string
		Model         string
		MaxTokens     int
		Temperature   float64
		MaxRequests   int
		CacheSize     int
		CacheTTL      time.Duration
		RatePerMinute int
		Burst         int
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.DefaultFromEmailName, Address: c.DefaultFromEmailAddress}
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// NewConfig reads the configuration from the environment (optionally loaded from `config/.env.<env>`)
// and falls back on sane defaults for local development.
func NewConfig() *Config {
	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	v := viper.New()
	v.SetEnvPrefix(env)
	v.SetTypeByDefaultValue(true)
	setDefaults(v, env)

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:             env,
		Build:           v.GetString("build"),
		Debug:           v.GetBool("debug"),
		TestMode:        v.GetBool("testMode"),
		AppName:         v.GetString("appName"),
		SecretKey:       v.GetString("secretKey"),
		WorkDir:         wd,
		FrontendBaseURL: strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),

		DefaultFromEmailName:    v.GetString("defaultFromEmailName"),
		DefaultFromEmailAddress: v.GetString("defaultFromEmail"),
		SendgridApiKey:          v.GetString("sendgridApiKey"),
		RollbarToken:            v.GetString("rollbarToken"),

		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Address:                   v.GetString("serverAddress"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ReadTimeout:               v.GetDuration("serverReadTimeout"),
			WriteTimeout:              v.GetDuration("serverWriteTimeout"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			CORSOrigins:               v.GetStringSlice("serverCorsOrigins"),
			BodyLimit:                 v.GetString("serverBodyLimit"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
			DisableReqLogs:            v.GetBool("disableReqLogs"),
		},

		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},

		Recommendation: RecommendationConfig{
			Provider:      v.GetString("aiProvider"),
			ApiKey:        v.GetString("aiApiKey"),
			BaseUrl:       v.GetString("aiBaseUrl"),
			Model:         v.GetString("aiModel"),
			MaxTokens:     v.GetInt("aiMaxTokens"),
			Temperature:   v.GetFloat64("aiTemperature"),
			MaxRequests:   v.GetInt("aiMaxRequests"),
			CacheSize:     v.GetInt("aiCacheSize"),
			CacheTTL:      v.GetDuration("aiCacheTTL"),
			RatePerMinute: v.GetInt("aiRatePerMinute"),
			Burst:         v.GetInt("aiBurst"),
		},
	}
}

func setDefaults(v *viper.Viper, env string) {
	debug := env == "DEV" || env == "TEST"

	v.SetDefault("build", "develop")
	v.SetDefault("debug", debug)
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "Soma")
	v.SetDefault("secretKey", "k2v&h0x!s9q%7-yl=3p)jd$e+mw4z(g8c#r*t^f1n@ub6a5i")
	v.SetDefault("frontendBaseURL", "http://localhost:19006")
	v.SetDefault("defaultFromEmailName", "Soma")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugHost", ":4000")
	v.SetDefault("serverReadTimeout", 5*time.Second)
	v.SetDefault("serverWriteTimeout", 30*time.Second)
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("serverBodyLimit", "2M")
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 30*24*time.Hour)
	v.SetDefault("disableReqLogs", false)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "soma")
	v.SetDefault("dbUser", "soma")
	v.SetDefault("dbPassword", "soma")
	v.SetDefault("dbAdminUser", "postgres")
	v.SetDefault("dbAdminPassword", "postgres")
	v.SetDefault("dbDisableTLS", debug)

	v.SetDefault("aiProvider", "dummy")
	v.SetDefault("aiApiKey", "")
	v.SetDefault("aiBaseUrl", "")
	v.SetDefault("aiModel", "gpt-4o-mini")
	v.SetDefault("aiMaxTokens", 300)
	v.SetDefault("aiTemperature", 0.7)
	v.SetDefault("aiMaxRequests", 250)
	v.SetDefault("aiCacheSize", 512)
	v.SetDefault("aiCacheTTL", time.Hour)
	v.SetDefault("aiRatePerMinute", 10)
	v.SetDefault("aiBurst", 3)
}
