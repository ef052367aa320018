// Package config loads config.yaml for the gateway.
//
// Values are layered: Default, then the YAML file, then GATEWAY_* environment
// variables (GATEWAY_MQTT_PASSWORD, GATEWAY_INFLUXDB_TOKEN and friends, so
// secrets can stay out of the file). Validate only checks the settings of
// components that are enabled under the gateway section.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//
// Components that read single settings rather than a typed section use the
// lookup helpers:
//
//	if cfg.GetBool(config.SectionGateway, config.KeyEnableMQTTClient) {
//	    // ...
//	}
package config
