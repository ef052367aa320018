package influxdb

import (
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

func TestWriteOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		gatewayID string
		wantBatch uint
		wantFlush uint
	}{
		{"defaults", config.InfluxDBConfig{}, "", 100, 10000},
		{"configured", config.InfluxDBConfig{BatchSize: 25, FlushInterval: 2}, "gw-7", 25, 2000},
		{"negative falls back", config.InfluxDBConfig{BatchSize: -1, FlushInterval: -5}, "gw-7", 100, 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := writeOptions(tt.cfg, tt.gatewayID)

			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlush)
			}
			if got := opts.Precision(); got != time.Millisecond {
				t.Errorf("Precision() = %v, want 1ms", got)
			}

			tags := opts.WriteOptions().DefaultTags()
			if tt.gatewayID == "" {
				if _, ok := tags[tagGateway]; ok {
					t.Errorf("DefaultTags() = %v, want no gateway tag", tags)
				}
				return
			}
			if tags[tagGateway] != tt.gatewayID {
				t.Errorf("DefaultTags()[%q] = %q, want %q", tagGateway, tags[tagGateway], tt.gatewayID)
			}
		})
	}
}
