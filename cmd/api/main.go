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

// Command api runs the QR builder HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/auth"
	"github.com/wso2-open-operations/qr-builder/internal/config"
	"github.com/wso2-open-operations/qr-builder/internal/logger"
	"github.com/wso2-open-operations/qr-builder/internal/qr"
	transport "github.com/wso2-open-operations/qr-builder/internal/transport/http"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.InitLogger()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if issues := cfg.Validate(); len(issues) > 0 {
		for _, issue := range issues {
			log.Error("Configuration issue", zap.String("issue", issue))
		}
		log.Fatal("Configuration validation failed")
	}

	log.Info("Starting QR builder service",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.Bool("auth_enabled", cfg.AuthEnabled),
		zap.Int("max_qr_size", cfg.MaxQRSize),
	)

	svc := qr.NewService(log, cfg.MinQRSize, cfg.MaxQRSize, cfg.MaxDataLength)
	store := auth.NewSessionStore(auth.DefaultTierLimits)
	validator := auth.NewBackendValidator(cfg.BackendURL, cfg.BackendSecret, cfg.ValidationTimeout)
	resolver := auth.NewResolver(store, validator, cfg.BackendSecret, cfg.AuthEnabled, log)

	handler := transport.NewHandler(svc, store, resolver, log, cfg)
	router := transport.NewRouter(handler, cfg, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	log.Info("Server stopped")
}
