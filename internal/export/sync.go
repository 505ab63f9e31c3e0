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

package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wso2-open-operations/qr-builder/internal/auth"
)

// usageResponse matches the service's /admin/usage payload.
type usageResponse struct {
	Records []auth.UsageRecord `json:"records"`
	Count   int                `json:"count"`
}

// SyncResult summarizes one completed sync run.
type SyncResult struct {
	Fetched     int
	Inserted    int64
	Checkpoint  time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Syncer pulls usage records newer than the billing database's checkpoint and
// appends them to the target table.
type Syncer struct {
	cfg    *Config
	client *http.Client
	logger *zap.Logger
}

// NewSyncer creates a sync pipeline with the given configuration.
func NewSyncer(cfg *Config, logger *zap.Logger) *Syncer {
	return &Syncer{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Run executes one sync pass: determine the checkpoint, fetch newer records
// from the service, and insert them in concurrent batches. Records carry
// service-side timestamps, so re-running after a partial failure re-fetches
// from the last fully stored record.
func (s *Syncer) Run(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{StartedAt: time.Now()}

	var db *sql.DB
	if !s.cfg.DryRun {
		var err error
		db, err = s.openDB()
		if err != nil {
			return nil, err
		}
		defer db.Close()
	}

	checkpoint, err := s.loadCheckpoint(ctx, db)
	if err != nil {
		return nil, err
	}
	result.Checkpoint = checkpoint

	s.logger.Info("Fetching usage records",
		zap.Time("checkpoint", checkpoint),
		zap.String("service_url", s.cfg.ServiceURL),
	)

	records, err := s.fetchUsage(ctx, checkpoint)
	if err != nil {
		return nil, err
	}
	result.Fetched = len(records)

	if len(records) == 0 {
		s.logger.Info("No new usage records to sync")
		result.CompletedAt = time.Now()
		return result, nil
	}

	if s.cfg.DryRun {
		s.logger.Info("Dry run mode - skipping database insert",
			zap.Int("records", len(records)),
		)
		result.CompletedAt = time.Now()
		return result, nil
	}

	inserted, err := s.insertBatches(ctx, db, records)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted
	result.CompletedAt = time.Now()

	s.logger.Info("Sync pass completed",
		zap.Int("fetched", result.Fetched),
		zap.Int64("inserted", result.Inserted),
		zap.Duration("duration", result.CompletedAt.Sub(result.StartedAt)),
	)
	return result, nil
}

func (s *Syncer) openDB() (*sql.DB, error) {
	db, err := sql.Open(s.cfg.DBType, s.cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to open billing database: %w", err)
	}
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping billing database: %w", err)
	}
	return db, nil
}

// loadCheckpoint reads the newest stored timestamp. An empty table (or dry
// run) yields the zero time, meaning a full fetch.
func (s *Syncer) loadCheckpoint(ctx context.Context, db *sql.DB) (time.Time, error) {
	if db == nil {
		return time.Time{}, nil
	}

	query := fmt.Sprintf("SELECT MAX(logged_at) FROM %s", s.cfg.TargetTable)
	var checkpoint sql.NullTime
	if err := db.QueryRowContext(ctx, query).Scan(&checkpoint); err != nil {
		return time.Time{}, fmt.Errorf("failed to read sync checkpoint: %w", err)
	}
	if !checkpoint.Valid {
		return time.Time{}, nil
	}
	return checkpoint.Time, nil
}

// fetchUsage calls GET /admin/usage with the webhook secret.
func (s *Syncer) fetchUsage(ctx context.Context, since time.Time) ([]auth.UsageRecord, error) {
	url := s.cfg.ServiceURL + "/admin/usage"
	if !since.IsZero() {
		url += "?since=" + strconv.FormatInt(since.Unix(), 10)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build usage request: %w", err)
	}
	req.Header.Set("X-Webhook-Secret", s.cfg.WebhookSecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usage fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usage fetch returned status %d", resp.StatusCode)
	}

	var payload usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode usage response: %w", err)
	}
	return payload.Records, nil
}

// insertBatches splits the records into batches and inserts them concurrently.
func (s *Syncer) insertBatches(ctx context.Context, db *sql.DB, records []auth.UsageRecord) (int64, error) {
	batchSize := s.cfg.BatchSize
	var batches [][]auth.UsageRecord
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}

	s.logger.Info("Inserting usage records",
		zap.Int("records", len(records)),
		zap.Int("batches", len(batches)),
		zap.String("table", s.cfg.TargetTable),
	)

	counts := make([]int64, len(batches))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxOpenConns)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			n, err := s.insertBatch(gCtx, db, batch)
			if err != nil {
				return fmt.Errorf("batch %d: %w", i, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// insertBatch writes one batch inside a transaction so a mid-batch failure
// leaves no partial rows behind.
func (s *Syncer) insertBatch(ctx context.Context, db *sql.DB, batch []auth.UsageRecord) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insertQuery())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for _, record := range batch {
		metadata, err := json.Marshal(record.Metadata)
		if err != nil {
			return 0, fmt.Errorf("failed to encode metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			record.Timestamp.UTC(), record.UserID, record.Style, record.Success, string(metadata),
		); err != nil {
			return 0, fmt.Errorf("failed to insert record: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return inserted, nil
}

// insertQuery builds the parameterized insert for the configured driver.
// MySQL and PostgreSQL use different placeholder syntax.
func (s *Syncer) insertQuery() string {
	cols := "(logged_at, user_id, style, success, metadata)"
	if s.cfg.DBType == "postgres" {
		return fmt.Sprintf("INSERT INTO %s %s VALUES ($1, $2, $3, $4, $5)", s.cfg.TargetTable, cols)
	}
	return fmt.Sprintf("INSERT INTO %s %s VALUES (?, ?, ?, ?, ?)", s.cfg.TargetTable, cols)
}
