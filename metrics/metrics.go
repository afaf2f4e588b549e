package metrics

import (
  "time"

  "github.com/prometheus/client_golang/prometheus"
  "github.com/hikaary/airstatus/status"
)

var (
  descBattery = prometheus.NewDesc(
    "airstatus_battery_level",
    "Battery level reported by the headphones (raw advertisement value).",
    []string{"model", "channel"},
    nil,
  )

  descCharging = prometheus.NewDesc(
    "airstatus_charging_info",
    "Whether the given channel is charging. 0 = no, 1 = yes.",
    []string{"model", "channel"},
    nil,
  )
)

// LatestFunc returns the most recent decoded status, its collection time and
// whether any status has been collected yet.
type LatestFunc func() (status.Status, time.Time, bool)

type collector struct {
  LatestFunc
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
  prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
  st, ts, ok := c.LatestFunc()

  if !ok || st.Status != 1 || st.Battery == nil {
    return
  }

  emit := func(channel string, level int, charging bool) {
    // sentinel readings are not data.
    if level < 0 {
      return
    }

    battery := prometheus.MustNewConstMetric(
      descBattery,
      prometheus.GaugeValue,
      float64(level),
      st.Model,
      channel,
    )

    chargingValue := 0.0

    if charging {
      chargingValue = 1.0
    }

    chargingMetric := prometheus.MustNewConstMetric(
      descCharging,
      prometheus.GaugeValue,
      chargingValue,
      st.Model,
      channel,
    )

    ch <- prometheus.NewMetricWithTimestamp(ts, battery)
    ch <- prometheus.NewMetricWithTimestamp(ts, chargingMetric)
  }

  emit("left", st.Battery.Left, st.Charging.Left)
  emit("right", st.Battery.Right, st.Charging.Right)

  if st.Battery.Case != nil {
    charging := st.Charging.Case != nil && *st.Charging.Case
    emit("case", *st.Battery.Case, charging)
  }
}

func RegisterCollector(f LatestFunc, reg prometheus.Registerer) {
  c := &collector{f}

  reg.MustRegister(c)
}
