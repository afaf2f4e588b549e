package airpods

import (
  "fmt"
  "sort"
)

// CompanyID is the Bluetooth SIG identifier for Apple (0x004C), used to key
// the manufacturer-specific data in advertisements.
const CompanyID uint16 = 76

// Model describes one recognized AirPods family. The marker byte is the first
// payload byte and works as a cheap discriminator before full validation.
type Model struct {
  Name string
  Marker byte
  PayloadLength int
}

const (
  markerAirPodsMax byte = 0x12
  markerAirPodsPro byte = 0x0e
  markerAirPods3   byte = 0x13
  markerAirPods2   byte = 0x0f
  markerAirPods1   byte = 0x02
)

// The battery format is only reverse-engineered end-to-end for the AirPods Max,
// so that is the only family with a decoder. The rest are recognized to tell
// "nearby but unsupported" apart from "not found".
var models = map[byte]Model{
  markerAirPodsMax: {Name: "AirPods Max", Marker: markerAirPodsMax, PayloadLength: 27},
  markerAirPodsPro: {Name: "AirPods Pro", Marker: markerAirPodsPro, PayloadLength: 54},
  markerAirPods3:   {Name: "AirPods 3", Marker: markerAirPods3, PayloadLength: 54},
  markerAirPods2:   {Name: "AirPods 2", Marker: markerAirPods2, PayloadLength: 54},
  markerAirPods1:   {Name: "AirPods 1", Marker: markerAirPods1, PayloadLength: 54},
}

// Decodable reports whether a battery decoder exists for this family.
func (m Model) Decodable() bool {
  return m.Marker == markerAirPodsMax
}

func (m Model) String() string {
  return fmt.Sprintf("model[name=%q, marker=0x%02x, len=%d]", m.Name, m.Marker, m.PayloadLength)
}

// Lookup returns the family associated with the given marker byte, if any.
func Lookup(marker byte) (Model, bool) {
  m, ok := models[marker]
  return m, ok
}

// Models returns every recognized family, ordered by marker byte.
func Models() []Model {
  out := make([]Model, 0, len(models))

  for _, m := range models {
    out = append(out, m)
  }

  sort.Slice(out, func(i, j int) bool {
    return out[i].Marker < out[j].Marker
  })

  return out
}
