package scanner

import (
  "context"
  "sync/atomic"
  "time"

  "github.com/pkg/errors"
  "github.com/rs/zerolog/log"
  "golang.org/x/sync/errgroup"

  "github.com/hikaary/airstatus/airpods"
  "github.com/hikaary/airstatus/ble"
  "github.com/hikaary/airstatus/scanner/model"
  "github.com/hikaary/airstatus/utils"
)

const (
  DefaultWindow = 12 * time.Second
  DefaultMinRSSI = -90
  DefaultQueueSize = 16
)

// Source is the advertisement source boundary. *ble.Handle implements it; tests
// substitute fakes.
type Source interface {
  Scan(ctx context.Context, allowDup bool, onAdvertisement func(ble.Advertisement)) error
}

type SessionOptions struct {
  // Wall-clock duration of the scan window.
  Window time.Duration
  // Advertisements below this signal strength are discarded without inspection.
  MinRSSI float64
  // Capacity of the advertisement queue between the radio callback and the
  // session loop.
  QueueSize int
}

func (o SessionOptions) withDefaults() SessionOptions {
  if o.Window <= 0 {
    o.Window = DefaultWindow
  }

  if o.MinRSSI == 0 {
    o.MinRSSI = DefaultMinRSSI
  }

  if o.QueueSize <= 0 {
    o.QueueSize = DefaultQueueSize
  }

  return o
}

// RunSession runs one bounded scan session: it subscribes to the source,
// inspects advertisements as they arrive and captures the first one that
// passes the vendor filter and shape validation, closing the subscription on
// capture, timeout or source failure alike. A timed-out session returns an
// empty result with a nil error - expected absence is data, not an error.
func RunSession(
  parentCtx context.Context,
  src Source,
  opts SessionOptions,
) (res model.SessionResult, err error) {
  opts = opts.withDefaults()

  sessionCtx, cancel := context.WithTimeout(parentCtx, opts.Window)
  defer cancel()

  // derive the scan context from the errgroup so a failing source ends the
  // session early instead of letting it idle out the full window.
  eg, ctx := errgroup.WithContext(sessionCtx)

  adCh := make(chan ble.Advertisement, opts.QueueSize)
  var claimed atomic.Bool

  callback := func(a ble.Advertisement) {
    // the BLE lib can keep delivering advertisements while the scan winds
    // down. do not waste time enqueueing data if we're done.
    select {
    case <-ctx.Done():
      return
    default:
    }

    select {
    case adCh <- a:
    default:
      log.Trace().
        Str("Addr", a.Addr().String()).
        Msg("scanner: advertisement queue full, dropping")
    }
  }

  log.Debug().
    Dur("Window", opts.Window).
    Float64("MinRSSI", opts.MinRSSI).
    Msg("scanner: starting scan session")

  eg.Go(func() error {
    err := src.Scan(ctx, true, callback)

    // context cancellations are our own doing (capture or window end).
    if utils.ErrorIsAnyOf(err, context.Canceled, context.DeadlineExceeded) {
      err = nil
    }

    return err
  })

loop:
  for {
    select {
    case <-ctx.Done():
      break loop
    case a := <-adCh:
      capture, unsupported := inspect(a, opts.MinRSSI)
      res.Unsupported += unsupported

      if capture == nil {
        continue
      }

      // first match wins. the single consumer loop already serializes this,
      // but the claim makes it hold even if delivery ever changes.
      if !claimed.CompareAndSwap(false, true) {
        continue
      }

      res.Capture = capture
      capturesCounter.Inc()

      log.Debug().
        Stringer("Capture", capture).
        Msg("scanner: captured matching advertisement, ending session")

      cancel()
      break loop
    }
  }

  if err := eg.Wait(); err != nil && res.Capture == nil {
    return res, err
  }

  if res.Capture == nil {
    log.Debug().
      Int("Unsupported", res.Unsupported).
      Msg("scanner: session ended without a matching advertisement")
  }

  return res, nil
}

// inspect runs one advertisement through the RSSI threshold, the vendor filter
// and shape validation. It reports whether the advertisement came from a
// recognized-but-undecodable family so the caller can tell "nearby but
// unsupported" apart from "nothing found".
func inspect(a ble.Advertisement, minRSSI float64) (*model.Capture, int) {
  addr := a.Addr().String()

  if float64(a.RSSI()) < minRSSI {
    log.Trace().
      Str("Addr", addr).
      Int("RSSI", a.RSSI()).
      Msg("scanner: rejected advertisement below RSSI threshold")

    return nil, 0
  }

  payload, ok := airpods.ManufacturerPayload(a)

  if !ok {
    log.Trace().
      Str("Addr", addr).
      Msg("scanner: filtered advertisement without Apple vendor data")

    return nil, 0
  }

  log.Trace().
    Str("Addr", addr).
    Hex("Payload", payload).
    Msg("scanner: filtered Apple vendor payload")

  mdl, err := airpods.Validate(payload)

  if err != nil {
    if errors.Is(err, airpods.ErrUnsupportedModel) {
      log.Debug().
        Str("Addr", addr).
        Err(err).
        Msg("scanner: rejected payload from unsupported device")

      return nil, 1
    }

    log.Trace().
      Str("Addr", addr).
      Err(err).
      Msg("scanner: rejected vendor payload")

    return nil, 0
  }

  log.Debug().
    Str("Addr", addr).
    Stringer("Model", mdl).
    Msg("scanner: validated vendor payload")

  payloadCopy := make([]byte, len(payload))
  copy(payloadCopy, payload)

  return &model.Capture{
    Addr: addr,
    RSSI: a.RSSI(),
    Model: mdl,
    Payload: payloadCopy,
    Time: time.Now(),
  }, 0
}
