package model

import (
  "fmt"
  "time"

  "github.com/hikaary/airstatus/airpods"
)

// Capture is the first advertisement within a session that passed both the
// vendor filter and shape validation. The payload is a private copy taken at
// capture time; the advertisement itself is not retained.
type Capture struct {
  Addr string
  RSSI int
  Model airpods.Model
  Payload []byte
  Time time.Time
}

func (c *Capture) String() string {
  return fmt.Sprintf("capture[model=%q, addr=%v, rssi=%d, len=%d]",
    c.Model.Name, c.Addr, c.RSSI, len(c.Payload))
}

// SessionResult carries the session outcome. A nil Capture with Unsupported > 0
// means recognized devices were nearby but none of them is decodable yet.
type SessionResult struct {
  Capture *Capture
  Unsupported int
}
