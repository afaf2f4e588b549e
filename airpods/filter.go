package airpods

import (
  "encoding/binary"

  "github.com/hikaary/airstatus/ble"
)

// ManufacturerPayload extracts the Apple vendor payload from an advertisement.
// The manufacturer-specific data starts with the company ID in little-endian
// order; everything after it is the vendor payload. Most advertisements carry
// no Apple data at all, so absence is an expected non-result, not an error.
func ManufacturerPayload(a ble.Advertisement) ([]byte, bool) {
  manufacturerData := a.ManufacturerData()

  if len(manufacturerData) < 2 {
    return nil, false
  }

  if binary.LittleEndian.Uint16(manufacturerData) != CompanyID {
    return nil, false
  }

  return manufacturerData[2:], true
}
