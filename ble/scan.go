package ble

import (
  "context"
  "fmt"

  "github.com/go-ble/ble"
)

func WrapContextWithSigHandler(ctx context.Context, cancel func()) context.Context {
  return ble.WithSigHandler(ctx, cancel)
}

// Scan until the context expires, invoking the callback for every observed advertisement.
// Duplicate advertisements from the same device are delivered again when allowDup is set.
func (h *Handle) Scan(ctx context.Context, allowDup bool, onAdvertisement func(Advertisement)) error {
  err := h.dev.Scan(ctx, allowDup, onAdvertisement)

  if err != nil {
    return fmt.Errorf("scan ended: %w", err)
  }

  return nil
}
