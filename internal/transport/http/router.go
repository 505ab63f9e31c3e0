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

package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/config"
)

// NewRouter wires every endpoint, the middleware chain, and CORS.
func NewRouter(h *Handler, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestLoggingMiddleware(logger))
	r.Use(MetricsMiddleware())

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/tiers", h.Tiers).Methods(http.MethodGet)
	r.HandleFunc("/account", h.Account).Methods(http.MethodGet)

	r.HandleFunc("/generate/basic", h.GenerateBasic).Methods(http.MethodPost)
	r.HandleFunc("/generate/text", h.GenerateText).Methods(http.MethodPost)
	r.HandleFunc("/generate/logo", h.GenerateLogo).Methods(http.MethodPost)
	r.HandleFunc("/embed", h.Embed).Methods(http.MethodPost)
	r.HandleFunc("/batch/embed", h.BatchEmbed).Methods(http.MethodPost)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(WebhookSecretMiddleware(cfg.BackendSecret, logger))
	admin.HandleFunc("/usage", h.AdminUsage).Methods(http.MethodGet)
	admin.HandleFunc("/stats/{user_id}", h.AdminStats).Methods(http.MethodGet)
	admin.HandleFunc("/cleanup", h.AdminCleanup).Methods(http.MethodPost)
	admin.HandleFunc("/tier", h.AdminUpdateTier).Methods(http.MethodPost)
	admin.HandleFunc("/sessions/{key}", h.AdminInvalidateSession).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", APIKeyHeader, WebhookSecretHeader},
	})
	return c.Handler(r)
}
