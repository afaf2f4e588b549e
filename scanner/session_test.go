package scanner_test

import (
  "context"
  "errors"
  "sync/atomic"
  "testing"
  "time"

  ble_mod "github.com/go-ble/ble"
  "github.com/hikaary/airstatus/ble"
  "github.com/hikaary/airstatus/scanner"
)

var errAdapterUnavailable = errors.New("adapter unavailable")

func TestRunSession_CapturesFirstMatch(t *testing.T) {
  src := &fakeSource{
    advertisements: []ble.Advertisement{
      appleAdvertisement("11:22:33:44:55:66", -50, maxPayload(0x05, 0x80)),
      appleAdvertisement("aa:bb:cc:dd:ee:ff", -40, maxPayload(0x0f, 0x00)),
    },
  }

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: time.Second,
  })

  if err != nil {
    t.Fatalf("RunSession got error: %v", err)
  }

  if res.Capture == nil {
    t.Fatal("RunSession did not capture a matching advertisement")
  }

  // first match wins, even when a stronger signal follows.
  if res.Capture.Addr != "11:22:33:44:55:66" {
    t.Fatalf("RunSession captured %q, wanted the first advertisement", res.Capture.Addr)
  }

  if res.Capture.Model.Name != "AirPods Max" {
    t.Fatalf("RunSession captured model %q, wanted AirPods Max", res.Capture.Model.Name)
  }
}

func TestRunSession_TimesOutWithoutMatch(t *testing.T) {
  window := 75 * time.Millisecond
  src := &fakeSource{}

  start := time.Now()

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: window,
  })

  elapsed := time.Since(start)

  if err != nil {
    t.Fatalf("RunSession got error: %v", err)
  }

  if res.Capture != nil {
    t.Fatalf("RunSession captured %v from an empty source", res.Capture)
  }

  if elapsed < window {
    t.Fatalf("RunSession returned after %v, wanted it to wait the full %v window", elapsed, window)
  }
}

func TestRunSession_AppliesRSSIThreshold(t *testing.T) {
  src := &fakeSource{
    advertisements: []ble.Advertisement{
      appleAdvertisement("11:22:33:44:55:66", -95, maxPayload(0x05, 0x80)),
    },
  }

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: 75 * time.Millisecond,
    MinRSSI: -90,
  })

  if err != nil {
    t.Fatalf("RunSession got error: %v", err)
  }

  if res.Capture != nil {
    t.Fatalf("RunSession captured %v despite RSSI below threshold", res.Capture)
  }
}

func TestRunSession_CountsUnsupportedDevices(t *testing.T) {
  proPayload := make([]byte, 54)
  proPayload[0] = 0x0e

  src := &fakeSource{
    advertisements: []ble.Advertisement{
      appleAdvertisement("11:22:33:44:55:66", -50, proPayload),
    },
  }

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: 75 * time.Millisecond,
  })

  if err != nil {
    t.Fatalf("RunSession got error: %v", err)
  }

  if res.Capture != nil {
    t.Fatalf("RunSession captured %v from a family without a decoder", res.Capture)
  }

  if res.Unsupported != 1 {
    t.Fatalf("RunSession counted %d unsupported devices, wanted 1", res.Unsupported)
  }
}

func TestRunSession_IgnoresForeignVendors(t *testing.T) {
  src := &fakeSource{
    advertisements: []ble.Advertisement{
      advertisement("11:22:33:44:55:66", -50, []byte{0xff, 0xff, 0x12, 0x34}),
    },
  }

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: 75 * time.Millisecond,
  })

  if err != nil {
    t.Fatalf("RunSession got error: %v", err)
  }

  if res.Capture != nil || res.Unsupported != 0 {
    t.Fatalf("RunSession reacted to a non-Apple advertisement: %+v", res)
  }
}

func TestRunSession_SourceFailure(t *testing.T) {
  src := &fakeSource{
    err: errAdapterUnavailable,
  }

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: time.Second,
  })

  if err == nil {
    t.Fatal("RunSession swallowed the source failure")
  }

  if res.Capture != nil {
    t.Fatalf("RunSession captured %v from a failing source", res.Capture)
  }
}

func TestRunSession_CopiesCapturedPayload(t *testing.T) {
  payload := maxPayload(0x05, 0x80)

  src := &fakeSource{
    advertisements: []ble.Advertisement{
      appleAdvertisement("11:22:33:44:55:66", -50, payload),
    },
  }

  res, err := scanner.RunSession(context.Background(), src, scanner.SessionOptions{
    Window: time.Second,
  })

  if err != nil || res.Capture == nil {
    t.Fatalf("RunSession got (%v, %v), wanted a capture", res.Capture, err)
  }

  payload[12] = 0x00

  if res.Capture.Payload[12] != 0x05 {
    t.Fatal("RunSession kept a reference to the advertisement payload instead of a copy")
  }
}

// fakeSource synchronously delivers its canned advertisements once, then
// blocks until the session context ends - like a radio with nothing new to say.
type fakeSource struct {
  advertisements []ble.Advertisement
  err error
  onScan func()

  scans atomic.Int32
}

func (s *fakeSource) Scan(
  ctx context.Context,
  _ bool,
  onAdvertisement func(ble.Advertisement),
) error {
  s.scans.Add(1)

  if s.onScan != nil {
    s.onScan()
  }

  if s.err != nil {
    return s.err
  }

  for _, a := range s.advertisements {
    onAdvertisement(a)
  }

  <-ctx.Done()

  return ctx.Err()
}

func maxPayload(batteryByte, chargingByte byte) []byte {
  payload := make([]byte, 27)
  payload[0] = 0x12
  payload[12] = batteryByte
  payload[14] = chargingByte

  return payload
}

func appleAdvertisement(addr string, rssi int, payload []byte) ble.Advertisement {
  return advertisement(addr, rssi, append([]byte{0x4c, 0x00}, payload...))
}

func advertisement(addr string, rssi int, manufacturerData []byte) ble.Advertisement {
  return FakeAdvertisement{
    addr: ble_mod.NewAddr(addr),
    rssi: rssi,
    manufacturerData: manufacturerData,
  }
}

type FakeAdvertisement struct {
  name string
  manufacturerData []byte
  rssi int
  addr ble_mod.Addr
}

func (f FakeAdvertisement) LocalName() string {
  return f.name
}

func (f FakeAdvertisement) ManufacturerData() []byte {
  return f.manufacturerData
}

func (f FakeAdvertisement) ServiceData() []ble_mod.ServiceData {
  return nil
}

func (f FakeAdvertisement) Services() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) OverflowService() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) TxPowerLevel() int {
  return 0
}

func (f FakeAdvertisement) Connectable() bool {
  return false
}

func (f FakeAdvertisement) SolicitedService() []ble_mod.UUID {
  return nil
}

func (f FakeAdvertisement) RSSI() int {
  return f.rssi
}

func (f FakeAdvertisement) Addr() ble_mod.Addr {
  return f.addr
}
