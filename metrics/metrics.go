// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics holds the prometheus collectors for SDK operations and the
// HTTP API. A nil *OperationMetrics or *APIMetrics records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/fhevm"
)

const (
	resultSuccess = "success"

	kindLabel   = "kind"
	resultLabel = "result"
	routeLabel  = "route"
	codeLabel   = "code"
)

type OperationMetrics struct {
	operations         *prometheus.CounterVec
	operationLatencyMS *prometheus.HistogramVec
	inFlight           *prometheus.GaugeVec
	initializations    *prometheus.CounterVec
}

func NewOperationMetrics(registerer prometheus.Registerer) *OperationMetrics {
	m := OperationMetrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "operations",
				Help: "Number of SDK operations by kind and result",
			},
			[]string{kindLabel, resultLabel},
		),
		operationLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "operation_latency_ms",
				Help:    "Latency of SDK operations in milliseconds",
				Buckets: prometheus.ExponentialBucketsRange(1, 60000, 12),
			},
			[]string{kindLabel},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "operations_in_flight",
				Help: "Number of SDK operations currently running",
			},
			[]string{kindLabel},
		),
		initializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "initializations",
				Help: "Number of session initializations by result",
			},
			[]string{resultLabel},
		),
	}
	registerer.MustRegister(m.operations)
	registerer.MustRegister(m.operationLatencyMS)
	registerer.MustRegister(m.inFlight)
	registerer.MustRegister(m.initializations)

	return &m
}

// Started marks an operation of the given kind as running.
func (m *OperationMetrics) Started(kind string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(kind).Inc()
}

// Finished records the outcome of an operation that was Started.
func (m *OperationMetrics) Finished(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(kind).Dec()
	m.operations.WithLabelValues(kind, result(err)).Inc()
	m.operationLatencyMS.WithLabelValues(kind).Observe(float64(elapsed.Milliseconds()))
}

func (m *OperationMetrics) Initialized(err error) {
	if m == nil {
		return
	}
	m.initializations.WithLabelValues(result(err)).Inc()
}

type APIMetrics struct {
	requests         *prometheus.CounterVec
	requestLatencyMS *prometheus.HistogramVec
	rateLimitedCount prometheus.Counter
}

func NewAPIMetrics(registerer prometheus.Registerer) *APIMetrics {
	m := APIMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests",
				Help: "Number of API requests by route and status code",
			},
			[]string{routeLabel, codeLabel},
		),
		requestLatencyMS: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_latency_ms",
				Help:    "Latency of API requests in milliseconds",
				Buckets: prometheus.ExponentialBucketsRange(1, 10000, 10),
			},
			[]string{routeLabel},
		),
		rateLimitedCount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "api_rate_limited",
				Help: "Number of API requests rejected by the rate limiter",
			},
		),
	}
	registerer.MustRegister(m.requests)
	registerer.MustRegister(m.requestLatencyMS)
	registerer.MustRegister(m.rateLimitedCount)

	return &m
}

func (m *APIMetrics) Request(route string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestLatencyMS.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))
}

func (m *APIMetrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedCount.Inc()
}

// Handler serves the metrics gathered by g in the prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// result labels an outcome by its error kind so dashboards can separate
// validation failures from gateway and wallet failures.
func result(err error) string {
	if err == nil {
		return resultSuccess
	}
	return fhevm.KindOf(err).String()
}
