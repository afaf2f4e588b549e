package main

import (
  "context"
  "errors"
  "time"

  "github.com/rs/zerolog/log"
  "golang.org/x/exp/maps"

  "github.com/hikaary/airstatus/airpods"
  "github.com/hikaary/airstatus/ble"
)

func doDeviceDiscovery(cfg config) {
  log.Info().Msg("Starting in device discovery mode - collecting devices for 5 seconds...")

  handle, err := ble.Init(cfg.BluetoothDeviceId, ble.FlagScanTypeActive)

  if err != nil {
    log.Fatal().Err(err).Msg("Failed to initialize Bluetooth device")
  }

  ctx := ble.WrapContextWithSigHandler(
    context.WithTimeout(
      context.Background(),
      5 * time.Second,
    ),
  )

  type deviceInfo struct {
    name string
    rssi int
    model string
    services []string
  }

  devices := make(map[string]deviceInfo)

  err = handle.Scan(ctx, true, func(a ble.Advertisement) {
    services := make(map[string]bool)

    for _, uuid := range a.Services() {
      services[uuid.String()] = true
    }

    var info deviceInfo
    var ok bool

    if info, ok = devices[a.Addr().String()]; ok {
      // merge
      if info.name == "" {
        info.name = a.LocalName()
      }
      info.rssi = a.RSSI()

      for _, uuid := range info.services {
        if _, ok := services[uuid]; !ok {
          services[uuid] = true
        }
      }

      info.services = maps.Keys(services)
    } else {
      info = deviceInfo{
        name: a.LocalName(),
        rssi: a.RSSI(),
        services: maps.Keys(services),
      }
    }

    if payload, ok := airpods.ManufacturerPayload(a); ok && len(payload) > 0 {
      if model, known := airpods.Lookup(payload[0]); known {
        info.model = model.Name
      }
    }

    devices[a.Addr().String()] = info

    log.Debug().
      Str("Addr", a.Addr().String()).
      Str("Name", a.LocalName()).
      Int("RSSI", a.RSSI()).
      Strs("Services", maps.Keys(services)).
      Hex("ManufacturerData", a.ManufacturerData()).
      Msg("Received device advertisement")
  })

  if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
    log.Fatal().Err(err).Msg("Failed to initiate scan")
  }

  log.Info().Int("Found", len(devices)).Msg("Finished device discovery")

  for addr, data := range devices {
    log.Info().
      Str("Addr", addr).
      Str("Name", data.name).
      Int("RSSI", data.rssi).
      Str("Model", data.model).
      Strs("Services", data.services).
      Msg("Found device")
  }
}
