package connection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/database"
)

func startPersistence(t *testing.T, cfg config.DatabaseConfig) *PersistenceClientConnector {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = database.MemoryPath
	}
	p := NewPersistenceClientConnector(cfg, nil)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Stop() })
	return p
}

func TestPersistenceNotStarted(t *testing.T) {
	p := NewPersistenceClientConnector(config.DatabaseConfig{Path: database.MemoryPath}, nil)
	ctx := context.Background()

	if p.Publish(data.CDASensorMsgResource, sensorPayload("t", 1, false), 1) {
		t.Error("Publish() before Start() = true")
	}
	if _, err := p.History(ctx, data.CDASensorMsgResource, 10); !errors.Is(err, ErrNotStarted) {
		t.Errorf("History() error = %v, want ErrNotStarted", err)
	}
	if _, err := p.Prune(ctx); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Prune() error = %v, want ErrNotStarted", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() before Start() error = %v", err)
	}
}

func TestPersistencePublishAndHistory(t *testing.T) {
	p := startPersistence(t, config.DatabaseConfig{})
	ctx := context.Background()

	for i, v := range []float64{10, 20, 30} {
		sd := data.NewSensorData()
		sd.SetName("temp")
		sd.SetValue(v)
		sd.SetHasError(i == 2)
		if !p.Publish(data.CDASensorMsgResource, mustJSON(sd), 1) {
			t.Fatalf("Publish() #%d = false", i)
		}
	}
	if !p.Publish(data.GDASystemPerfMsgResource, mustJSON(data.NewSystemPerformanceData()), 1) {
		t.Fatal("Publish() perf = false")
	}

	entries, err := p.History(ctx, data.CDASensorMsgResource, 0)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("History() returned %d entries, want 3", len(entries))
	}

	newest := entries[0]
	back, err := data.SensorDataFromJSON(newest.Payload)
	if err != nil {
		t.Fatalf("stored payload does not decode: %v", err)
	}
	if back.Value() != 30 || !newest.HasError {
		t.Errorf("newest entry = %+v (value %v), want the last published reading", newest, back.Value())
	}
	if newest.Kind != data.KindSensor.String() || newest.Name != "temp" || newest.Resource != data.CDASensorMsgResource {
		t.Errorf("newest entry metadata = %+v", newest)
	}
	if newest.RecordedAt.IsZero() || newest.StoredAt.IsZero() {
		t.Error("timestamps not stored")
	}

	limited, err := p.History(ctx, data.CDASensorMsgResource, 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("History(limit=2) returned %d entries", len(limited))
	}
}

func TestPersistenceRejectsInvalidPayload(t *testing.T) {
	p := startPersistence(t, config.DatabaseConfig{})

	if p.Publish(data.CDASensorMsgResource, "not json", 1) {
		t.Error("Publish() accepted malformed payload")
	}
	if p.Publish(data.ResourceName("cda/unknown"), "{}", 1) {
		t.Error("Publish() accepted unknown resource")
	}
}

func TestPersistencePrune(t *testing.T) {
	p := startPersistence(t, config.DatabaseConfig{RetentionDays: 7})
	ctx := context.Background()

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now.AddDate(0, 0, -30) }
	if err := p.Store(ctx, data.CDASensorMsgResource, sensorPayload("old", 1, false)); err != nil {
		t.Fatalf("Store() old error = %v", err)
	}
	p.now = func() time.Time { return now }
	if err := p.Store(ctx, data.CDASensorMsgResource, sensorPayload("new", 2, false)); err != nil {
		t.Fatalf("Store() new error = %v", err)
	}

	n, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d rows, want 1", n)
	}

	entries, err := p.History(ctx, data.CDASensorMsgResource, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "new" {
		t.Errorf("remaining entries = %+v", entries)
	}
}

func TestPersistencePruneDisabled(t *testing.T) {
	p := startPersistence(t, config.DatabaseConfig{})
	n, err := p.Prune(context.Background())
	if err != nil || n != 0 {
		t.Errorf("Prune() = %d, %v; want 0, nil", n, err)
	}
}

func TestPersistenceStartIdempotent(t *testing.T) {
	p := startPersistence(t, config.DatabaseConfig{})
	if err := p.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}
}
