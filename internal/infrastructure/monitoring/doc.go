/*
Package monitoring provides Prometheus metrics for the daemon.

# Overview

Metrics cover the window registry (live and hibernating windows, tracked
apps, reconciliation latency, lifecycle transitions, notifications), process
signalling (signals sent, escalations, resume outcomes), kill requests, the
HTTP API and WebSocket subscribers.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))

	metrics.SetWindows(live, hibernating, apps)
	metrics.RecordSignal("SIGTERM", true)

Tests register on a private registry:

	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())

# Metrics Endpoint

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
