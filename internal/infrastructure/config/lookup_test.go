package config

import "testing"

func TestGetBool(t *testing.T) {
	cfg := Default()
	cfg.Gateway.EnableCloudClient = true

	tests := []struct {
		name    string
		section string
		key     string
		def     bool
		want    bool
	}{
		{"set true", SectionGateway, KeyEnableCloudClient, false, true},
		{"default true", SectionGateway, KeyEnableSystemPerf, false, true},
		{"set false", SectionGateway, KeyEnableMQTTClient, true, false},
		{"missing key uses default", SectionGateway, "enable_nothing", true, true},
		{"missing section uses default", "nowhere", KeyEnableCloudClient, true, true},
		{"wrong type uses default", SectionGateway, "id", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.GetBoolOrDefault(tt.section, tt.key, tt.def); got != tt.want {
				t.Errorf("GetBoolOrDefault(%q, %q, %v) = %v, want %v", tt.section, tt.key, tt.def, got, tt.want)
			}
		})
	}

	if cfg.GetBool(SectionGateway, "enable_nothing") {
		t.Error("GetBool() on a missing key = true, want false")
	}
}

func TestGetStringAndInt(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Broker.Host = "broker.local"

	if got := cfg.GetString(SectionMQTT, "broker.host"); got != "broker.local" {
		t.Errorf("GetString(mqtt, broker.host) = %q, want %q", got, "broker.local")
	}
	if got := cfg.GetStringOrDefault(SectionSMTP, "host", "fallback"); got != "fallback" {
		t.Errorf("GetStringOrDefault() on empty value = %q, want %q", got, "fallback")
	}
	if got := cfg.GetInt(SectionMQTT, "qos"); got != 1 {
		t.Errorf("GetInt(mqtt, qos) = %d, want 1", got)
	}
	if got := cfg.GetInt(SectionSystemPerf, "poll_interval"); got != 30 {
		t.Errorf("GetInt(system_perf, poll_interval) = %d, want 30", got)
	}
	if got := cfg.GetIntOrDefault(SectionMQTT, "broker.nothing", 7); got != 7 {
		t.Errorf("GetIntOrDefault() on missing key = %d, want 7", got)
	}
}

func TestLookupNilConfig(t *testing.T) {
	var cfg *Config
	if cfg.GetBoolOrDefault(SectionGateway, KeyEnableSystemPerf, true) != true {
		t.Error("nil config should return the default")
	}
}
