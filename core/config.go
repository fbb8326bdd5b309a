package core

import (
	"log"
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
		Env              string // DEV (local; default), TEST, QA, PROD
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		WorkDir          string
		LogLevel         string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address

		Server  ServerConfig
		Backend BackendConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		DisableReqLogs     bool
	}

	// BackendConfig locates the GraphQL backend that owns all school data.
	BackendConfig struct {
		GraphQLEndpoint string
		BaseURL         string // REST-style routes, eg. /api/school/create-term
		Timeout         time.Duration
		Offline         bool // serve from the in-memory store instead of the backend
	}
)

func (c *Config) IsProd() bool { return c.Env == "PROD" }

// NewConfig reads the configuration from the environment.
// Variables are prefixed with the environment name, eg. DEV_SECRETKEY, PROD_BACKEND_GRAPHQLENDPOINT.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Masomo")
	v.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	v.SetDefault("logLevel", "debug")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("backend.graphqlEndpoint", "http://localhost:8080/graphql")
	v.SetDefault("backend.baseURL", "http://localhost:8080")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.offline", false)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	workDir := Getwd()
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          workDir,
		LogLevel:         v.GetString("logLevel"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Address:            v.GetString("server.address"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			DisableReqLogs:     v.GetBool("server.disableReqLogs"),
		},
		Backend: BackendConfig{
			GraphQLEndpoint: v.GetString("backend.graphqlEndpoint"),
			BaseURL:         strings.TrimRight(v.GetString("backend.baseURL"), "/"),
			Timeout:         v.GetDuration("backend.timeout"),
			Offline:         v.GetBool("backend.offline"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests; it never touches the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "Masomo",
		SecretKey:        "secret",
		LogLevel:         "error",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Masomo", Address: "noreply@localhost"},
		Server: ServerConfig{
			Host:               "localhost",
			ShutdownTimeout:    time.Second,
			JWTExpirationDelta: 10 * time.Minute,
			DisableReqLogs:     true,
		},
		Backend: BackendConfig{Timeout: 5 * time.Second, Offline: true},
	}
}
