// Package logging builds the gateway's structured logger on log/slog.
//
// Every entry carries service=gateway and the build version. The format is
// JSON unless logging.format is "text", and entries below logging.level are
// dropped. logging.output may name stdout, stderr, or a file:
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "/var/log/gateway.log"
//
// Attributes whose key ends in password, token, or secret are written as
// [REDACTED], so connector settings can be logged without leaking
// credentials.
package logging
