package status

import (
  "encoding/hex"
  "fmt"
  "time"

  "github.com/hikaary/airstatus/airpods"
)

const timestampFormat = "2006-01-02 15:04:05"

type Channels struct {
  Left int `json:"left"`
  Right int `json:"right"`
  Case *int `json:"case"`
}

type ChargingChannels struct {
  Left bool `json:"left"`
  Right bool `json:"right"`
  Case *bool `json:"case"`
}

// Status is the decoded output consumed by the presentation layer. Status is 1
// for a successful capture and 0 otherwise; a zero status carries only the
// error and timestamp.
type Status struct {
  Status int `json:"status"`
  Model string `json:"model,omitempty"`
  Battery *Channels `json:"battery,omitempty"`
  Charging *ChargingChannels `json:"charging,omitempty"`
  Timestamp string `json:"timestamp"`
  RawData string `json:"raw_data,omitempty"`
  Error string `json:"error,omitempty"`
}

func OK(model string, b airpods.Battery, rawPayload []byte) Status {
  st := Status{
    Status: 1,
    Model: model,
    Battery: &Channels{
      Left: b.Left,
      Right: b.Right,
      Case: b.Case,
    },
    Charging: &ChargingChannels{
      Left: b.Charging.Left,
      Right: b.Charging.Right,
      Case: b.Charging.Case,
    },
    Timestamp: time.Now().Format(timestampFormat),
  }

  if rawPayload != nil {
    st.RawData = hex.EncodeToString(rawPayload)
  }

  return st
}

// DecodeFailed still reports the captured model, but with sentinel battery
// values so the reading can never be mistaken for a real empty battery.
func DecodeFailed(model string, err error) Status {
  st := OK(model, airpods.SentinelBattery(), nil)
  st.Error = err.Error()

  return st
}

func NotFound() Status {
  return failed("AirPods Max not found")
}

func Unsupported() Status {
  return failed("Unsupported device type")
}

func Failed(err error) Status {
  return failed(err.Error())
}

func failed(msg string) Status {
  return Status{
    Status: 0,
    Error: msg,
    Timestamp: time.Now().Format(timestampFormat),
  }
}

// Render formats the status for human consumption, mirroring the JSON schema:
// a single battery line for single-unit devices, per-channel lines otherwise.
func (s Status) Render() string {
  if s.Status == 0 {
    msg := s.Error

    if msg == "" {
      msg = "Unknown error"
    }

    return fmt.Sprintf("❌ Error: %s", msg)
  }

  if s.Model == "AirPods Max" {
    return fmt.Sprintf("🎧 %s\nBattery: %d%%%s",
      s.Model, s.Battery.Left, chargeIndicator(s.Charging.Left))
  }

  out := fmt.Sprintf("🎧 %s\nLeft:  %d%%%s\nRight: %d%%%s",
    s.Model,
    s.Battery.Left, chargeIndicator(s.Charging.Left),
    s.Battery.Right, chargeIndicator(s.Charging.Right))

  if s.Battery.Case != nil {
    charging := s.Charging.Case != nil && *s.Charging.Case
    out += fmt.Sprintf("\nCase:  %d%%%s", *s.Battery.Case, chargeIndicator(charging))
  }

  return out
}

func chargeIndicator(charging bool) string {
  if charging {
    return " ⚡"
  }

  return ""
}
