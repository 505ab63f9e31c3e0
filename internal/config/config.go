// Copyright (c) 2026 WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Package config provides configuration management for the QR builder service.
// It loads configuration from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable keys.
const (
	PortKey            = "QR_BUILDER_PORT"
	ReadTimeoutKey     = "QR_BUILDER_READ_TIMEOUT"
	WriteTimeoutKey    = "QR_BUILDER_WRITE_TIMEOUT"
	ShutdownTimeoutKey = "QR_BUILDER_SHUTDOWN_TIMEOUT"

	EnvironmentKey = "QR_BUILDER_ENV"

	AuthEnabledKey       = "QR_BUILDER_AUTH_ENABLED"
	BackendSecretKey     = "QR_BUILDER_BACKEND_SECRET"
	BackendURLKey        = "QR_BUILDER_BACKEND_URL"
	ValidationTimeoutKey = "QR_BUILDER_VALIDATION_TIMEOUT"
	AllowedOriginsKey    = "QR_BUILDER_ALLOWED_ORIGINS"

	MaxUploadMBKey   = "QR_BUILDER_MAX_UPLOAD_MB"
	MinQRSizeKey     = "QR_BUILDER_MIN_QR_SIZE"
	MaxQRSizeKey     = "QR_BUILDER_MAX_QR_SIZE"
	DefaultSizeKey   = "QR_BUILDER_DEFAULT_SIZE"
	MaxDataLengthKey = "QR_BUILDER_MAX_DATA_LENGTH"
)

const devSecret = "dev-secret-not-for-production"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	Environment string

	AuthEnabled       bool
	BackendSecret     string
	BackendURL        string
	ValidationTimeout time.Duration
	AllowedOrigins    []string

	MaxUploadBytes int64
	MinQRSize      int
	MaxQRSize      int
	DefaultSize    int
	MaxDataLength  int
}

// LoadConfig reads configuration from environment variables and returns a Config instance.
func LoadConfig() (*Config, error) {
	environment := getEnv(EnvironmentKey, "development")
	isProduction := environment == "production"

	secret := getEnv(BackendSecretKey, "")
	if secret == "" {
		if isProduction {
			return nil, fmt.Errorf("%s must be set in production environment", BackendSecretKey)
		}
		secret = devSecret
	}

	originsDefault := "*"
	if isProduction {
		originsDefault = "https://aiqso.io,https://www.aiqso.io,https://api.aiqso.io"
	}

	authDefault := "false"
	if isProduction {
		authDefault = "true"
	}

	cfg := &Config{
		Port:            getEnv(PortKey, "8080"),
		ReadTimeout:     getEnvDuration(ReadTimeoutKey, 10*time.Second),
		WriteTimeout:    getEnvDuration(WriteTimeoutKey, 30*time.Second),
		ShutdownTimeout: getEnvDuration(ShutdownTimeoutKey, 5*time.Second),

		Environment: environment,

		AuthEnabled:       parseBool(getEnv(AuthEnabledKey, authDefault)),
		BackendSecret:     secret,
		BackendURL:        getEnv(BackendURLKey, "https://api.aiqso.io"),
		ValidationTimeout: getEnvDuration(ValidationTimeoutKey, 5*time.Second),
		AllowedOrigins:    parseCommaList(getEnv(AllowedOriginsKey, originsDefault)),

		MaxUploadBytes: int64(getEnvInt(MaxUploadMBKey, 10)) * 1024 * 1024,
		MinQRSize:      getEnvInt(MinQRSizeKey, 21),
		MaxQRSize:      getEnvInt(MaxQRSizeKey, 4000),
		DefaultSize:    getEnvInt(DefaultSizeKey, 500),
		MaxDataLength:  getEnvInt(MaxDataLengthKey, 4296),
	}

	return cfg, nil
}

// Validate checks the configuration for inconsistencies and returns a list of issues.
// An empty list means the configuration is usable.
func (c *Config) Validate() []string {
	var issues []string

	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		issues = append(issues, fmt.Sprintf("invalid port: %s", c.Port))
	}
	if c.MinQRSize >= c.MaxQRSize {
		issues = append(issues, "min QR size must be less than max QR size")
	}
	if c.DefaultSize < c.MinQRSize || c.DefaultSize > c.MaxQRSize {
		issues = append(issues, "default QR size must be within min/max bounds")
	}
	if c.MaxUploadBytes < 1 {
		issues = append(issues, "max upload size must be at least 1 byte")
	}

	if c.Environment == "production" {
		// An empty origin list makes the CORS layer allow every origin,
		// which is the same hole as an explicit wildcard.
		if len(c.AllowedOrigins) == 0 {
			issues = append(issues, "allowed origins must be set in production")
		}
		for _, origin := range c.AllowedOrigins {
			if origin == "*" {
				issues = append(issues, "wildcard CORS origins not allowed in production")
			}
		}
		if c.BackendSecret == devSecret {
			issues = append(issues, "backend secret not set for production")
		}
	}

	return issues
}

// getEnv retrieves a string environment variable or returns fallback if not set.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvDuration retrieves a duration environment variable or returns fallback.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// getEnvInt retrieves an int environment variable or returns fallback (only accepts positive values).
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

// parseBool parses a boolean from an environment variable string.
func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseCommaList parses a comma-separated environment variable into a slice,
// dropping empty entries.
func parseCommaList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
