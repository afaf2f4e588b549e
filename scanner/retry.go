package scanner

import (
  "context"
  "time"

  "github.com/rs/zerolog/log"

  "github.com/hikaary/airstatus/airpods"
  "github.com/hikaary/airstatus/status"
)

const (
  DefaultMaxAttempts = 3
  DefaultBackoff = time.Second
)

type RetryOptions struct {
  // Number of scan sessions to run before giving up.
  MaxAttempts int
  // Fixed delay between a failed session and the next attempt.
  Backoff time.Duration
  // Echo the captured payload as hex in the status. Debug only.
  EchoRawPayload bool

  Session SessionOptions
}

func GetStatus(ctx context.Context, src Source) status.Status {
  return GetStatusWithOptions(ctx, src, RetryOptions{})
}

// GetStatusWithOptions is the top-level operation: it runs scan sessions
// sequentially - one radio scan at a time - until one captures a payload,
// decodes it and returns. Source failures count against MaxAttempts but do
// not abort the remaining attempts. Cancellation is observed between
// attempts, so interval-polling callers terminate promptly.
func GetStatusWithOptions(ctx context.Context, src Source, opts RetryOptions) status.Status {
  if opts.MaxAttempts <= 0 {
    opts.MaxAttempts = DefaultMaxAttempts
  }

  if opts.Backoff <= 0 {
    opts.Backoff = DefaultBackoff
  }

  unsupported := 0
  var lastErr error

  for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
    if attempt > 1 {
      log.Trace().
        Dur("Backoff", opts.Backoff).
        Msg("scanner: backing off before next attempt")

      select {
      case <-ctx.Done():
        return status.Failed(ctx.Err())
      case <-time.After(opts.Backoff):
      }
    }

    sessionsCounter.Inc()

    log.Debug().
      Int("Attempt", attempt).
      Int("MaxAttempts", opts.MaxAttempts).
      Msg("scanner: starting scan attempt")

    res, err := RunSession(ctx, src, opts.Session)
    unsupported += res.Unsupported

    if err != nil {
      failedSessionsCounter.Inc()
      lastErr = err

      log.Warn().
        Err(err).
        Int("Attempt", attempt).
        Msg("scanner: scan session failed")

      continue
    }

    if res.Capture == nil {
      if ctx.Err() != nil {
        return status.Failed(ctx.Err())
      }

      continue
    }

    log.Info().
      Stringer("Capture", res.Capture).
      Msg("scanner: found matching device")

    battery, err := airpods.DecodeMaxBattery(res.Capture.Payload)

    if err != nil {
      decodeFailuresCounter.Inc()

      log.Error().
        Err(err).
        Stringer("Capture", res.Capture).
        Msg("scanner: failed to decode captured payload")

      return status.DecodeFailed(res.Capture.Model.Name, err)
    }

    log.Debug().
      Stringer("Battery", battery).
      Stringer("Model", res.Capture.Model).
      Msg("scanner: decoded battery status")

    var raw []byte

    if opts.EchoRawPayload {
      raw = res.Capture.Payload
    }

    return status.OK(res.Capture.Model.Name, battery, raw)
  }

  switch {
  case unsupported > 0:
    return status.Unsupported()
  case lastErr != nil:
    return status.Failed(lastErr)
  default:
    return status.NotFound()
  }
}
