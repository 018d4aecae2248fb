// Package simulator publishes plausible vehicle telemetry so the dashboard can
// be exercised without a vehicle: a car driving a circle around a centre point
// until its pack runs low, then charging back up in place.
package simulator

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/evdash/core/telemetry"
	"github.com/kilianp07/evdash/infra/logger"
)

const metresPerDegree = 111320.0

// Publisher sends a payload to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, topic, payload string) error
}

// Message is one telemetry publication.
type Message struct {
	Topic   string
	Payload string
}

// Simulator generates one telemetry frame per step.
type Simulator struct {
	cfg     Config
	pub     Publisher
	log     logger.Logger
	mu      sync.Mutex
	rng     *rand.Rand
	battery *Battery

	angle     float64 // radians around the centre
	charging  bool
	chargeKwh float64
	tempLow   float64
}

// New creates a Simulator. pub may be nil when only Step is used.
func New(cfg Config, pub Publisher) (*Simulator, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{
		cfg: cfg,
		pub: pub,
		log: logger.New("simulator"),
		rng: rand.New(rand.NewSource(seed)),
		battery: &Battery{
			CapacityKWh:     cfg.CapacityKWh,
			Soc:             cfg.InitialSoC,
			ChargeRateKW:    cfg.ChargeRateKW,
			DischargeRateKW: cfg.DischargeRateKW,
		},
		tempLow: 18,
	}, nil
}

// Charging reports whether the vehicle is parked on the charger.
func (s *Simulator) Charging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.charging
}

// Step advances the simulation by dt and returns the frame to publish.
func (s *Simulator) Step(dt time.Duration) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	hours := dt.Hours()
	soc := s.battery.Soc
	switch {
	case !s.charging && soc <= s.cfg.ChargeBelow:
		s.charging = true
		s.chargeKwh = 0
	case s.charging && soc >= s.cfg.ChargeUntil:
		s.charging = false
	}

	var speed, solarW, appliedKW float64
	solarW = math.Max(0, 180+s.rng.NormFloat64()*40)
	if s.charging {
		appliedKW = s.battery.ApplyPower(-s.cfg.ChargeRateKW, hours)
		s.chargeKwh += -appliedKW * hours
	} else {
		speed = math.Max(0, s.cfg.SpeedKmh+s.rng.NormFloat64()*3)
		drawKW := 0.12*speed + 0.3 + s.rng.Float64()*0.5 - solarW/1000
		appliedKW = s.battery.ApplyPower(drawKW, hours)
		// arc length travelled along the circle
		s.angle += speed / 3.6 * dt.Seconds() / s.cfg.RadiusM
		s.angle = math.Mod(s.angle, 2*math.Pi)
	}

	cellMean := s.battery.CellVoltage(appliedKW)
	packV := cellMean * telemetry.SeriesCells
	currentA := 0.0
	if packV > 0 {
		// discharge current is negative
		currentA = -appliedKW * 1000 / packV
	}
	s.tempLow += (18 + 0.4*math.Abs(appliedKW) - s.tempLow) * 0.05
	lat, lon := s.position()
	throttle := 0.0
	if s.cfg.SpeedKmh > 0 {
		throttle = math.Min(100, speed/s.cfg.SpeedKmh*60)
	}

	chargeState, plugState := "Standby", "Disconnected"
	if s.charging {
		plugState = "Active"
		chargeState = "Bulk"
		if s.battery.Soc >= 0.8 {
			chargeState = "Finish"
		}
	}

	p := s.cfg.Prefix + "/"
	return []Message{
		{p + telemetry.TopicAltitude, format(20+5*math.Sin(s.angle), 1)},
		{p + telemetry.TopicSpeed, format(speed, 1)},
		{p + telemetry.TopicBearing, format(s.heading(), 1)},
		{p + telemetry.TopicPosition, format(lat, 6) + "," + format(lon, 6)},
		{p + telemetry.TopicPackCurrent, format(currentA, 1)},
		{p + telemetry.TopicCellVoltageLow, format(cellMean-0.012, 4)},
		{p + telemetry.TopicCellVoltageMean, format(cellMean, 4)},
		{p + telemetry.TopicCellVoltageHigh, format(cellMean+0.009, 4)},
		{p + telemetry.TopicSoC, strconv.Itoa(int(math.Round(s.battery.Soc * 100)))},
		{p + telemetry.TopicPackKwhCurrent, format(s.battery.EnergyKWh(), 1)},
		{p + telemetry.TopicPackKwhMax, format(s.battery.CapacityKWh, 1)},
		{p + telemetry.TopicPackTempLow, strconv.Itoa(int(s.tempLow))},
		{p + telemetry.TopicPackTempHigh, strconv.Itoa(int(s.tempLow) + 3)},
		{p + telemetry.TopicChargeKwh, format(s.chargeKwh, 2)},
		{p + telemetry.TopicChargeState, chargeState},
		{p + telemetry.TopicChargePlugState, plugState},
		{p + telemetry.TopicSolarPower, format(solarW, 0)},
		{p + telemetry.TopicThrottlePointer, format(throttle, 0)},
		{p + telemetry.TopicThrottlePosition, format(throttle, 0)},
		{p + telemetry.TopicOvertempCap, "100"},
	}
}

// position converts the angle on the circle to WGS84.
func (s *Simulator) position() (lat, lon float64) {
	north := s.cfg.RadiusM * math.Cos(s.angle)
	east := s.cfg.RadiusM * math.Sin(s.angle)
	lat = s.cfg.CenterLatitude + north/metresPerDegree
	lon = s.cfg.CenterLongitude + east/(metresPerDegree*math.Cos(s.cfg.CenterLatitude*math.Pi/180))
	return lat, lon
}

// heading is the compass direction of travel, tangent to the circle.
func (s *Simulator) heading() float64 {
	deg := math.Atan2(math.Cos(s.angle), -math.Sin(s.angle)) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Run publishes a frame every interval until ctx is cancelled. Publish errors
// are logged and the next frame is attempted.
func (s *Simulator) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.IntervalMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.log.Infof("simulating under %s/# every %s", s.cfg.Prefix, interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, m := range s.Step(interval) {
				if err := s.pub.Publish(ctx, m.Topic, m.Payload); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					s.log.Warnf("publish %s: %v", m.Topic, err)
				}
			}
		}
	}
}

func format(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}
