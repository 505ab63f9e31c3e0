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

// Command usagesync copies usage records from the QR builder service into the
// billing database. It is designed to run on a schedule (cron or similar);
// each invocation performs a single incremental sync pass.
package main

import (
	"context"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/export"
	"github.com/wso2-open-operations/qr-builder/internal/logger"
)

func main() {
	logger.InitLogger()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Logger.Debug("No .env file found, using environment variables")
	}

	cfg, err := export.LoadConfig()
	if err != nil {
		logger.Logger.Fatal("Failed to load sync configuration", zap.Error(err))
	}

	logger.Logger.Info("Starting usage sync",
		zap.String("service_url", cfg.ServiceURL),
		zap.String("db_type", cfg.DBType),
		zap.String("target_table", cfg.TargetTable),
		zap.Bool("dry_run", cfg.DryRun),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SyncTimeout)
	defer cancel()

	syncer := export.NewSyncer(cfg, logger.Logger)
	result, err := syncer.Run(ctx)
	if err != nil {
		logger.Logger.Fatal("Usage sync failed", zap.Error(err))
	}

	logger.Logger.Info("Usage sync completed",
		zap.Int("fetched", result.Fetched),
		zap.Int64("inserted", result.Inserted),
		zap.Time("checkpoint", result.Checkpoint),
	)
}
