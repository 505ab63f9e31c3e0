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

// Package logger provides centralized logging configuration for the QR builder service.
// Logging is based on LOG_ENV (dev/prod) and LOG_LEVEL (debug/info/warn/error).
package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the shared application logger. Call InitLogger before use.
var Logger *zap.Logger

var (
	initOnce sync.Once
	levelMap = map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
)

// InitLogger initializes and returns the shared logger.
// Production (LOG_ENV=prod) uses single-line JSON for structured log parsing;
// development uses a human-readable console encoder.
func InitLogger() *zap.Logger {
	initOnce.Do(func() {
		logEnv := os.Getenv("LOG_ENV")
		level := getLogLevelFromEnv()

		var cfg zap.Config
		if logEnv == "prod" {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stdout"}

		built, err := cfg.Build()
		if err != nil {
			// Fall back to a no-op logger rather than crash before startup.
			built = zap.NewNop()
		}
		Logger = built

		Logger.Info("Logger initialized",
			zap.String("LOG_ENV", logEnv),
			zap.String("LOG_LEVEL", level.String()),
		)
	})
	return Logger
}

// Sync flushes any buffered log entries. Call via defer from main.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// getLogLevelFromEnv parses LOG_LEVEL (debug/info/warn/error), defaults to info.
func getLogLevelFromEnv() zapcore.Level {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if level, ok := levelMap[levelStr]; ok {
		return level
	}
	return zapcore.InfoLevel
}
