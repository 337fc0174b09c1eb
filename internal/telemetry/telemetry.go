// Package telemetry reads the newest field readings from InfluxDB so the
// estimator form can start from observed values.
package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog"
)

const (
	SourceInflux = "influx"
	SourceNone   = "none"

	measurementReservoir = "reservoir"
	measurementSoil      = "soil_moisture"

	fieldStorage  = "storage_volume"
	fieldInflow   = "inflow_rate"
	fieldRainfall = "rainfall"
	fieldMoisture = "moisture"
)

type Reading struct {
	Value float64   `json:"value"`
	Time  time.Time `json:"time"`
}

// Prefill holds whatever readings were found; absent ones stay nil.
// SoilMoisture is the mean of the latest value of every sensor.
type Prefill struct {
	Source        string   `json:"source"`
	StorageVolume *Reading `json:"current_storage_volume,omitempty"`
	InflowRate    *Reading `json:"daily_inflow_rate,omitempty"`
	Rainfall      *Reading `json:"rainfall_in_watershed,omitempty"`
	SoilMoisture  *Reading `json:"current_soil_moisture,omitempty"`
	Sensors       int      `json:"soil_sensors"`
}

type Config struct {
	Org     string
	Bucket  string
	Window  time.Duration
	Timeout time.Duration
}

type Source struct {
	client influxdb2.Client
	cfg    Config
	log    zerolog.Logger
}

func NewSource(client influxdb2.Client, cfg Config, log zerolog.Logger) *Source {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &Source{client: client, cfg: cfg, log: log.With().Str("component", "telemetry").Logger()}
}

func buildFlux(bucket string, window time.Duration) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) =>
       (r._measurement == %q and (r._field == %q or r._field == %q or r._field == %q)) or
       (r._measurement == %q and r._field == %q))
  |> group(columns: ["_measurement", "_field", "sensor_id"])
  |> last()
`, bucket, int(window.Minutes()),
		measurementReservoir, fieldStorage, fieldInflow, fieldRainfall,
		measurementSoil, fieldMoisture)
}

// Latest queries the configured window. A nil Source reports SourceNone.
func (s *Source) Latest(ctx context.Context) (Prefill, error) {
	if s == nil || s.client == nil {
		return Prefill{Source: SourceNone}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	res, err := s.client.QueryAPI(s.cfg.Org).Query(ctx, buildFlux(s.cfg.Bucket, s.cfg.Window))
	if err != nil {
		return Prefill{Source: SourceNone}, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()

	var recs []record
	for res.Next() {
		r := res.Record()
		v, ok := toFloat(r.Value())
		if !ok {
			continue
		}
		sensor, _ := r.ValueByKey("sensor_id").(string)
		recs = append(recs, record{
			measurement: r.Measurement(),
			field:       r.Field(),
			sensor:      sensor,
			value:       v,
			time:        r.Time(),
		})
	}
	if err := res.Err(); err != nil {
		return Prefill{Source: SourceNone}, fmt.Errorf("influx iterate: %w", err)
	}
	p := fold(recs)
	s.log.Debug().Int("records", len(recs)).Int("sensors", p.Sensors).Msg("prefill read")
	return p, nil
}

// Ping is the readiness check.
func (s *Source) Ping(ctx context.Context) bool {
	if s == nil || s.client == nil {
		return false
	}
	ok, err := s.client.Ping(ctx)
	return err == nil && ok
}

type record struct {
	measurement string
	field       string
	sensor      string
	value       float64
	time        time.Time
}

func fold(recs []record) Prefill {
	p := Prefill{Source: SourceInflux}
	var sum float64
	var last time.Time
	for _, r := range recs {
		switch r.measurement {
		case measurementReservoir:
			switch r.field {
			case fieldStorage:
				p.StorageVolume = newer(p.StorageVolume, r)
			case fieldInflow:
				p.InflowRate = newer(p.InflowRate, r)
			case fieldRainfall:
				p.Rainfall = newer(p.Rainfall, r)
			}
		case measurementSoil:
			if r.field != fieldMoisture {
				continue
			}
			sum += r.value
			p.Sensors++
			if r.time.After(last) {
				last = r.time
			}
		}
	}
	if p.Sensors > 0 {
		p.SoilMoisture = &Reading{Value: sum / float64(p.Sensors), Time: last.UTC()}
	}
	return p
}

func newer(cur *Reading, r record) *Reading {
	if cur != nil && !r.time.After(cur.Time) {
		return cur
	}
	return &Reading{Value: r.value, Time: r.time.UTC()}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
