// Package metrics exposes the gateway's Prometheus collectors.
//
// All collectors live on a private registry owned by Metrics, so several
// gateways (or tests) in one process never collide on the default registry.
// Every method is safe on a nil *Metrics, which lets components treat
// metrics as optional.
//
// Exposed series:
//   - gateway_messages_handled_total{kind,result}
//   - gateway_data_errors_total{kind}
//   - gateway_upstream_publishes_total{result}
//   - gateway_upstream_publish_duration_seconds
//   - gateway_sampler_ticks_total
//   - gateway_system_utilization_percent{metric}
//
// plus the standard Go runtime and process collectors.
package metrics
