// Package factory builds pluggable modules, such as metric sinks, from
// `{type, conf}` entries of the configuration file. Each factory decodes its
// raw conf map into a typed struct with Decode, which accepts weakly typed
// values coming from YAML or environment overrides.
//
//	sinks := factory.NewRegistry[metrics.MetricsSink]()
//	_ = sinks.Register("influx", func(conf map[string]any) (metrics.MetricsSink, error) {
//	    var c InfluxConfig
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return NewInfluxSinkWithFallback(c), nil
//	})
//	sink, err := sinks.Create(factory.ModuleConfig{Type: "influx", Conf: map[string]any{"bucket": "telemetry"}})
package factory
