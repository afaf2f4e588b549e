package main

import (
  "context"
  "encoding/json"
  "fmt"
  "net/http"
  "os"
  "sync"
  "time"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promhttp"
  "github.com/rs/zerolog"
  "github.com/rs/zerolog/log"

  "github.com/hikaary/airstatus/airpods"
  "github.com/hikaary/airstatus/ble"
  "github.com/hikaary/airstatus/metrics"
  "github.com/hikaary/airstatus/scanner"
  "github.com/hikaary/airstatus/status"
  "github.com/hikaary/airstatus/utils"
)

type latestStatus struct {
  mu sync.Mutex
  status status.Status
  time time.Time
  ok bool
}

func (l *latestStatus) Update(st status.Status) {
  l.mu.Lock()
  defer l.mu.Unlock()

  l.status = st
  l.time = time.Now()
  l.ok = true
}

func (l *latestStatus) Latest() (status.Status, time.Time, bool) {
  l.mu.Lock()
  defer l.mu.Unlock()

  return l.status, l.time, l.ok
}

func main() {
  zerolog.DurationFieldUnit = time.Second
  zerolog.TimeFieldFormat = time.RFC3339Nano

  log.Logger = log.Output(zerolog.ConsoleWriter{
    Out: os.Stderr,
    TimeFormat: "15:04:05.000",
  })

  cfg := ParseArgs()

  if cfg.Trace || os.Getenv("TRACE") != "" {
      zerolog.SetGlobalLevel(zerolog.TraceLevel)
  } else if cfg.Debug || os.Getenv("DEBUG") != "" {
      zerolog.SetGlobalLevel(zerolog.DebugLevel)
  } else {
      zerolog.SetGlobalLevel(zerolog.InfoLevel)
  }

  if cfg.DiscoverDevices {
    doDeviceDiscovery(cfg)
    return
  }

  log.Info().
    Array("Models", utils.ToZeroLogArray(airpods.Models())).
    Float64("MinRSSI", cfg.MinRSSI).
    Int("BluetoothDeviceID", cfg.BluetoothDeviceId).
    Msg("Starting with the specified configuration")

  // AirPods only include the full payload in scan responses, so scan actively.
  handle, err := ble.Init(cfg.BluetoothDeviceId, ble.FlagScanTypeActive)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  defer handle.Stop()

  ctx, cancel := context.WithCancel(context.Background())
  ctx = ble.WrapContextWithSigHandler(ctx, cancel)

  opts := scanner.RetryOptions{
    MaxAttempts: cfg.MaxRetries,
    Backoff: cfg.Backoff,
    EchoRawPayload: cfg.Debug || cfg.Trace,
    Session: scanner.SessionOptions{
      Window: cfg.ScanWindow,
      MinRSSI: cfg.MinRSSI,
    },
  }

  var latest latestStatus

  if cfg.MetricsBindAddress != "" {
    registry := prometheus.NewRegistry()

    scanner.RegisterMetrics(registry)
    metrics.RegisterCollector(latest.Latest, registry)

    log.Info().
      Str("ListenAddress", cfg.MetricsBindAddress).
      Msg("Starting Prometheus server")

    http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

    go func() {
      if err := http.ListenAndServe(cfg.MetricsBindAddress, nil); err != nil {
        log.Fatal().Err(err).Msg("Unable to bind on requested address")
      }
    }()
  }

  for {
    st := scanner.GetStatusWithOptions(ctx, handle, opts)
    latest.Update(st)

    emit(cfg, st)

    if cfg.PollInterval <= 0 {
      return
    }

    select {
    case <-ctx.Done():
      log.Info().Msg("Stopping...")
      return
    case <-time.After(cfg.PollInterval):
    }
  }
}

func emit(cfg config, st status.Status) {
  if cfg.JSONOutput {
    out, err := json.MarshalIndent(st, "", "  ")

    if err != nil {
      log.Error().Err(err).Msg("Failed to marshal status")
      return
    }

    fmt.Println(string(out))
    return
  }

  fmt.Println(st.Render())
}
