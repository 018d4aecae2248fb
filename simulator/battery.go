package simulator

import "math"

// Cell voltage range of the simulated lithium cells.
const (
	cellEmptyV = 3.0
	cellFullV  = 4.15
)

// Battery models the traction pack with charge and discharge limits.
type Battery struct {
	CapacityKWh     float64
	Soc             float64 // [0,1]
	ChargeRateKW    float64
	DischargeRateKW float64
}

// ApplyPower moves energy in or out of the pack over hours. Positive power
// discharges, negative power charges. It returns the power actually applied
// once rate limits and the remaining headroom are enforced.
func (b *Battery) ApplyPower(powerKW, hours float64) float64 {
	if hours <= 0 || powerKW == 0 {
		return 0
	}
	var limit, headroom float64
	if powerKW > 0 {
		limit = b.DischargeRateKW
		headroom = b.Soc * b.CapacityKWh
	} else {
		limit = b.ChargeRateKW
		headroom = (1 - b.Soc) * b.CapacityKWh
	}
	p := math.Min(math.Abs(powerKW), limit)
	energy := math.Min(p*hours, headroom)
	p = energy / hours
	if powerKW > 0 {
		b.Soc -= energy / b.CapacityKWh
	} else {
		b.Soc += energy / b.CapacityKWh
		p = -p
	}
	b.Soc = math.Max(0, math.Min(1, b.Soc))
	return p
}

// EnergyKWh is the energy left in the pack.
func (b *Battery) EnergyKWh() float64 { return b.Soc * b.CapacityKWh }

// CellVoltage is the open-circuit voltage of an average cell, with a sag
// proportional to the load.
func (b *Battery) CellVoltage(loadKW float64) float64 {
	v := cellEmptyV + (cellFullV-cellEmptyV)*b.Soc
	return v - 0.005*loadKW
}
