/*
Package monitoring provides Prometheus metrics for the CueDeck backend.

Metrics live on a private registry so tests and multiple hosts in one
process never collide.

# Metrics

  - cuedeck_http_requests_total, cuedeck_http_request_duration_seconds
  - cuedeck_session_saves_total{result}: saved, refused, error
  - cuedeck_session_loads_total{result}: restored, empty, missing, malformed, error, busy
  - cuedeck_session_backup_failures_total
  - cuedeck_session_restoring: 1 while saves are refused
  - cuedeck_profile_operations_total{op,result}
  - cuedeck_profile_switches_total{result}

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

*Metrics satisfies the recorder interfaces of the profile, session and
app packages.
*/
package monitoring
