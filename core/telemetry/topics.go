package telemetry

// Telemetry topics, relative to the subscription prefix.
const (
	TopicAltitude         = "gps/altitude"
	TopicSpeed            = "gps/speed"
	TopicBearing          = "gps/bearing"
	TopicPosition         = "gps/position"
	TopicChargeKwh        = "mcu/charge_kwh"
	TopicChargeState      = "mcu/charge_state"
	TopicChargePlugState  = "mcu/charge_plug_state"
	TopicPackCurrent      = "mcu/pack_current"
	TopicCellVoltageLow   = "mcu/cell_voltage_low"
	TopicCellVoltageMean  = "mcu/cell_voltage_mean"
	TopicCellVoltageHigh  = "mcu/cell_voltage_high"
	TopicSoC              = "mcu/soc"
	TopicPackKwhCurrent   = "mcu/pack_kwh_current"
	TopicPackKwhMax       = "mcu/pack_kwh_max"
	TopicPackTempLow      = "mcu/pack_temp_low"
	TopicPackTempHigh     = "mcu/pack_temp_high"
	TopicSolarPower       = "solar/power"
	TopicThrottlePointer  = "motor_controller/throttle_pointer"
	TopicThrottlePosition = "motor_controller/throttle_position"
	TopicOvertempCap      = "motor_controller/overtemp_cap"
)

// DefaultPrefix is the root of the telemetry topic space.
const DefaultPrefix = "live"

// Wildcard returns the subscription filter covering every topic under prefix.
func Wildcard(prefix string) string {
	if prefix == "" {
		return "#"
	}
	return prefix + "/#"
}
