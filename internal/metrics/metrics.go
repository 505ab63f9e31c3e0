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

// Package metrics exposes Prometheus instrumentation for the QR builder
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_builder_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"path", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qr_builder_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"path"},
	)
	blockedRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_builder_blocked_requests_total",
			Help: "Total number of requests rejected by auth, quota, or tier gating",
		},
		[]string{"reason"},
	)
	usageLogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "qr_builder_usage_log_records",
			Help: "Number of usage records currently buffered for billing sync",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(blockedRequests)
	prometheus.MustRegister(usageLogSize)
}

// ObserveRequest records one completed HTTP request.
func ObserveRequest(path, status string, duration time.Duration) {
	requestsTotal.WithLabelValues(path, status).Inc()
	requestDuration.WithLabelValues(path).Observe(float64(duration.Milliseconds()))
}

// BlockedRequest counts a rejection by its machine-readable reason code.
func BlockedRequest(reason string) {
	blockedRequests.WithLabelValues(reason).Inc()
}

// SetUsageLogSize updates the usage log size gauge.
func SetUsageLogSize(n int) {
	usageLogSize.Set(float64(n))
}
