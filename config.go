package main

import (
  "flag"
  "fmt"
  "os"
  "time"

  "github.com/hikaary/airstatus/scanner"
)

type config struct {
  Debug, Trace bool
  JSONOutput bool
  DiscoverDevices bool
  BluetoothDeviceId int
  MinRSSI float64
  MaxRetries int
  ScanWindow time.Duration
  Backoff time.Duration
  PollInterval time.Duration
  MetricsBindAddress string
}

func ParseArgs() config {
  var cfg config

  flag.BoolVar(&cfg.JSONOutput, "json", false, "Output in JSON format")
  flag.IntVar(&cfg.BluetoothDeviceId, "bluetooth-device", 0, "Bluetooth (HCI) device ID")
  flag.BoolVar(&cfg.DiscoverDevices, "discover", false, "Discover available BLE devices and quit")
  flag.Float64Var(&cfg.MinRSSI, "min-rssi", scanner.DefaultMinRSSI,
    "Minimum signal strength (dBm) for an advertisement to be inspected")
  flag.IntVar(&cfg.MaxRetries, "max-retries", scanner.DefaultMaxAttempts,
    "Max number of scan attempts per check")
  flag.DurationVar(&cfg.ScanWindow, "window", scanner.DefaultWindow,
    "Duration of each scan attempt")
  flag.DurationVar(&cfg.Backoff, "backoff", scanner.DefaultBackoff,
    "Delay between failed scan attempts")
  flag.DurationVar(&cfg.PollInterval, "interval", 0,
    "How frequently the battery status is polled (0 for a single check)")
  flag.StringVar(&cfg.MetricsBindAddress, "metrics-bind", "",
    "Expose Prometheus metrics on this address when polling (empty to disable)")
  flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logs")
  flag.BoolVar(&cfg.Trace, "trace", false, "Enable trace logs")

  flag.Parse()

  if cfg.MaxRetries < 1 {
    fmt.Fprintln(os.Stderr, "Error: -max-retries must be at least 1!")
    flag.Usage()
    os.Exit(1)
  }

  if cfg.MetricsBindAddress != "" && cfg.PollInterval <= 0 {
    fmt.Fprintln(os.Stderr, "Error: -metrics-bind requires polling (-interval > 0)!")
    flag.Usage()
    os.Exit(1)
  }

  return cfg
}
