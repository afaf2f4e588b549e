package airpods

import (
  "fmt"
  "strings"

  "github.com/pkg/errors"
)

const (
  batteryOffset = 12
  batteryMask = 0x0f
  chargingOffset = 14
  chargingMask = 0x80
)

// Battery is the decoded per-channel battery state. Case is nil for families
// without a charging case. A -1 percentage means the value could not be read.
type Battery struct {
  Left int
  Right int
  Case *int

  Charging Charging
}

type Charging struct {
  Left bool
  Right bool
  Case *bool
}

func (b Battery) String() string {
  var fields []string

  fields = append(fields, fmt.Sprintf("Left=%d%%", b.Left))
  fields = append(fields, fmt.Sprintf("Right=%d%%", b.Right))

  if b.Case != nil {
    fields = append(fields, fmt.Sprintf("Case=%d%%", *b.Case))
  }

  fields = append(fields, fmt.Sprintf("Charging=%v/%v", b.Charging.Left, b.Charging.Right))

  return fmt.Sprintf("battery[%s]", strings.Join(fields, ","))
}

// SentinelBattery is the explicit "could not decode" value. -1 is never a real
// reading, unlike 0 which would look like an empty battery.
func SentinelBattery() Battery {
  return Battery{
    Left: -1,
    Right: -1,
  }
}

// Validate checks a vendor payload against the family table and accepts it only
// if it can be decoded end-to-end. It is the single gate keeping payloads
// shorter than the decoder offsets away from DecodeMaxBattery.
func Validate(payload []byte) (Model, error) {
  if len(payload) == 0 {
    return Model{}, ErrEmptyPayload
  }

  m, ok := models[payload[0]]

  if !ok {
    return Model{}, errors.Wrapf(ErrUnknownPayload,
      "no known family for marker 0x%02x (payload length %d)", payload[0], len(payload))
  }

  if !m.Decodable() {
    return m, errors.Wrapf(ErrUnsupportedModel, "no decoder for %s", m.Name)
  }

  if len(payload) != m.PayloadLength {
    return m, errors.Wrapf(ErrUnsupportedModel,
      "unexpected payload length for %s (want %d, got %d)", m.Name, m.PayloadLength, len(payload))
  }

  return m, nil
}

// DecodeMaxBattery decodes a validated AirPods Max payload. The device has a
// single physical battery, so the same nibble and charging bit are reported
// for both channels on purpose. There is no case channel.
func DecodeMaxBattery(payload []byte) (b Battery, err error) {
  if len(payload) <= chargingOffset {
    return SentinelBattery(), errors.Wrapf(ErrTruncatedPayload,
      "need at least %d bytes, got %d", chargingOffset + 1, len(payload))
  }

  level := int(payload[batteryOffset] & batteryMask)
  charging := payload[chargingOffset] & chargingMask != 0

  b.Left = level
  b.Right = level
  b.Charging.Left = charging
  b.Charging.Right = charging

  return b, nil
}
