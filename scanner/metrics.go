package scanner

import (
  "github.com/prometheus/client_golang/prometheus"
)

var (
  sessionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "airstatus_scan_sessions_total",
  })
  failedSessionsCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "airstatus_failed_scan_sessions_total",
  })
  capturesCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "airstatus_captures_total",
  })
  decodeFailuresCounter = prometheus.NewCounter(prometheus.CounterOpts{
    Name: "airstatus_decode_failures_total",
  })
)

func RegisterMetrics(reg prometheus.Registerer) {
  reg.MustRegister(
    sessionsCounter,
    failedSessionsCounter,
    capturesCounter,
    decodeFailuresCounter,
  )
}
