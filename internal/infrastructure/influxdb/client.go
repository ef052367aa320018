package influxdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
)

const (
	pingTimeout = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Logger is the logging surface the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options carries the per-gateway settings that are not part of the
// InfluxDB section of config.yaml.
type Options struct {
	// GatewayID is attached to every point as the gateway_id tag.
	GatewayID string

	// Logger receives async batch failures. Nil discards them.
	Logger Logger
}

// Stats counts points handed to the write API and batches it rejected.
type Stats struct {
	Queued       uint64
	FailedWrites uint64
}

// Client is the cloud sink. Points are queued on a non-blocking batched
// write API; failures surface through the logger and Stats.
type Client struct {
	influx   influxdb2.Client
	writeAPI api.WriteAPI
	bucket   string
	logger   Logger

	closed atomic.Bool
	queued atomic.Uint64
	failed atomic.Uint64
}

// Connect creates the client, pings the server within ctx, and starts the
// batched write API.
//
// Returns ErrDisabled when cfg.URL is empty and ErrConnectionFailed when the
// server is unreachable or unhealthy.
func Connect(ctx context.Context, cfg config.InfluxDBConfig, opts Options) (*Client, error) {
	if cfg.URL == "" {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg, opts.GatewayID))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(pingCtx, influx); err != nil {
		influx.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrConnectionFailed, cfg.URL, err)
	}

	c := &Client{
		influx:   influx,
		writeAPI: influx.WriteAPI(cfg.Org, cfg.Bucket),
		bucket:   cfg.Bucket,
		logger:   opts.Logger,
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}

	go c.drainErrors(c.writeAPI.Errors())

	return c, nil
}

// writeOptions maps config.yaml settings onto the library's options.
// Batch size and flush interval fall back to defaults when unset.
func writeOptions(cfg config.InfluxDBConfig, gatewayID string) *influxdb2.Options {
	batch := defaultBatchSize
	if cfg.BatchSize > 0 {
		batch = cfg.BatchSize
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	// #nosec G115 -- both values are positive
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush.Milliseconds())).
		SetPrecision(time.Millisecond)
	if gatewayID != "" {
		opts.AddDefaultTag(tagGateway, gatewayID)
	}
	return opts
}

func ping(ctx context.Context, influx influxdb2.Client) error {
	ok, err := influx.Ping(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("server not ready")
	}
	return nil
}

// drainErrors runs until the write API closes its error channel on Close.
func (c *Client) drainErrors(errs <-chan error) {
	for err := range errs {
		c.failed.Add(1)
		c.logger.Error("influxdb batch rejected", "bucket", c.bucket, "error", fmt.Errorf("%w: %w", ErrWriteFailed, err))
	}
}

// queue hands p to the write API unless the client is closed.
func (c *Client) queue(p *write.Point) {
	if c.closed.Load() {
		return
	}
	c.writeAPI.WritePoint(p)
	c.queued.Add(1)
}

// Close flushes queued points and releases the client. Further writes are
// dropped. Safe to call more than once, and on a zero Client.
func (c *Client) Close() error {
	if c.influx == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeAPI.Flush()
	c.influx.Close()
	return nil
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	checkCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(checkCtx, c.influx); err != nil {
		return fmt.Errorf("influxdb health check: %w", err)
	}
	return nil
}

// IsConnected reports whether the client has been connected and not closed.
func (c *Client) IsConnected() bool {
	return c.influx != nil && !c.closed.Load()
}

// Flush sends any queued points now. No-op after Close.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}

// Stats returns the write counters.
func (c *Client) Stats() Stats {
	return Stats{
		Queued:       c.queued.Load(),
		FailedWrites: c.failed.Load(),
	}
}
