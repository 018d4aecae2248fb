package view

import (
	"math"
	"strconv"
)

// Gauge ranges.
const (
	PowerGaugeMax = 32
	SpeedGaugeMax = 100
)

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(places)
	r := math.Round(v*p) / p
	if r == 0 {
		// drop the sign of negative zero
		return 0
	}
	return r
}

// Format renders v with a fixed number of decimal places.
func Format(v float64, places int) string {
	return strconv.FormatFloat(Round(v, places), 'f', places, 64)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Interpolate maps input from [inMin, inMax] onto [outMin, outMax]. The result
// never exceeds outMax; there is no lower clamp. A degenerate input range
// yields outMin.
func Interpolate(input, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	out := outMin + (input-inMin)*((outMax-outMin)/(inMax-inMin))
	if out > outMax {
		out = outMax
	}
	return out
}

// Power returns the pack power in kW, positive when the pack is discharging.
func Power(packVoltage, packCurrent float64) float64 {
	return -(packVoltage * packCurrent) / 1000
}

// PowerGauge is the integer power value shown on the kW gauge.
func PowerGauge(packVoltage, packCurrent float64) float64 {
	return Clamp(Round(Power(packVoltage, packCurrent), 0), 0, PowerGaugeMax)
}

// SpeedGauge is the integer speed value shown on the km/h gauge.
func SpeedGauge(speed float64) float64 {
	return Clamp(Round(speed, 0), 0, SpeedGaugeMax)
}

// ThrottlePercent maps the throttle pointer onto 0..100 of the current
// throttle cap.
func ThrottlePercent(pointer, limit float64) float64 {
	return Clamp(Round(Interpolate(pointer, 0, limit, 0, 100), 0), 0, 100)
}

// SoCIndicator feeds the circular state of charge widget.
type SoCIndicator struct {
	Value   float64 `json:"value"`
	Percent int     `json:"percent"`
	Label   string  `json:"label"`
}

// StateOfCharge derives the circular indicator from a raw SoC percentage.
func StateOfCharge(soc float64) SoCIndicator {
	pct := int(Round(soc, 0))
	return SoCIndicator{
		Value:   Clamp(soc, 0, 100),
		Percent: pct,
		Label:   strconv.Itoa(pct) + "%",
	}
}
