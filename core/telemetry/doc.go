// Package telemetry reduces broker messages into the dashboard state.
//
// A Dispatcher owns a single State. Inbound (topic, payload) pairs are looked
// up in a fixed transition table keyed by the topic relative to the
// subscription prefix:
//   - gps/*: altitude, speed, smoothed bearing and position
//   - mcu/*: battery pack, cell voltages, charge state and the current history
//   - solar/power and motor_controller/*: solar input and throttle
//
// User actions (preference toggles and manual viewport moves) are applied
// through the same lock so that every observer sees one ordered stream.
package telemetry
