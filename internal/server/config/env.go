package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables recognised by parseEnv.
const (
	EnvHTTPAddr        = "TODO_HTTP_ADDR"
	EnvGRPCAddr        = "TODO_GRPC_ADDR"
	EnvDatabaseDSN     = "TODO_DATABASE_DSN"
	EnvSecretKey       = "TODO_SECRET_KEY"
	EnvTokenValidity   = "TODO_TOKEN_VALIDITY"
	EnvShutdownTimeout = "TODO_SHUTDOWN_TIMEOUT"
)

// loadDotenv is a seam for tests.
var loadDotenv = godotenv.Load

// parseEnv overlays Config with TODO_* environment variables.
//
// Before reading the environment it loads a dotenv file: the one named by
// -env (panicking if it cannot be read), otherwise ./.env when present.
// Variables already set in the process environment win over the file.
// Durations use Go syntax ("30s", "24h"); an invalid duration panics.
func parseEnv(config *Config) {
	if file := flagx.EnvFileFlags(); file != "" {
		if err := loadDotenv(file); err != nil {
			panic(err)
		}
	} else {
		_ = loadDotenv()
	}

	setString(&config.EndpointAddrHTTP, EnvHTTPAddr)
	setString(&config.EndpointAddrGRPC, EnvGRPCAddr)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.SecretKey, EnvSecretKey)
	setDuration(&config.AccessTokenValidityDuration, EnvTokenValidity)
	setDuration(&config.ShutdownTimeout, EnvShutdownTimeout)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
