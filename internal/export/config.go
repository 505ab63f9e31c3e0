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

// Package export pulls usage records from the QR builder service and loads
// them into the billing database (MySQL or PostgreSQL).
package export

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variable keys for the sync tool.
const (
	ServiceURLKey    = "QR_SYNC_SERVICE_URL"
	WebhookSecretKey = "QR_SYNC_WEBHOOK_SECRET"

	DBTypeKey       = "QR_SYNC_DB_TYPE"
	DBConnStringKey = "QR_SYNC_DB_CONNECTION_STRING"
	TargetTableKey  = "QR_SYNC_TARGET_TABLE"

	BatchSizeKey    = "QR_SYNC_BATCH_SIZE"
	SyncTimeoutKey  = "QR_SYNC_TIMEOUT"
	MaxOpenConnsKey = "QR_SYNC_MAX_OPEN_CONNS"
	DryRunKey       = "QR_SYNC_DRY_RUN"
)

// Config holds the sync tool's configuration, loaded from environment
// variables.
type Config struct {
	ServiceURL    string
	WebhookSecret string

	DBType       string
	ConnString   string
	TargetTable  string
	BatchSize    int
	SyncTimeout  time.Duration
	MaxOpenConns int
	DryRun       bool
}

// LoadConfig reads the sync configuration from the environment. ServiceURL,
// WebhookSecret, and the connection string are mandatory.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServiceURL:    strings.TrimRight(os.Getenv(ServiceURLKey), "/"),
		WebhookSecret: os.Getenv(WebhookSecretKey),

		DBType:       getEnv(DBTypeKey, "mysql"),
		ConnString:   os.Getenv(DBConnStringKey),
		TargetTable:  getEnv(TargetTableKey, "qr_usage_log"),
		BatchSize:    getEnvInt(BatchSizeKey, 500),
		SyncTimeout:  getEnvDuration(SyncTimeoutKey, 2*time.Minute),
		MaxOpenConns: getEnvInt(MaxOpenConnsKey, 4),
		DryRun:       getEnv(DryRunKey, "false") == "true",
	}

	if cfg.ServiceURL == "" {
		return nil, fmt.Errorf("%s must be set", ServiceURLKey)
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%s must be set", WebhookSecretKey)
	}
	if cfg.ConnString == "" && !cfg.DryRun {
		return nil, fmt.Errorf("%s must be set unless dry run is enabled", DBConnStringKey)
	}
	switch cfg.DBType {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported %s: %q (expected mysql or postgres)", DBTypeKey, cfg.DBType)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
