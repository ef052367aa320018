package connection

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

var errSMTPNotConfigured = errors.New("smtp: host, from and at least one recipient are required")

// sendMailFunc matches smtp.SendMail.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPClientConnector mails an alert for every upstream record that
// carries the error flag. Records without the flag are not sent.
type SMTPClientConnector struct {
	cfg       config.SMTPConfig
	gatewayID string
	logger    Logger
	send      sendMailFunc
	now       func() time.Time

	mu      sync.RWMutex
	started bool
}

// NewSMTPClientConnector creates a connector. It does not contact the server.
func NewSMTPClientConnector(cfg config.SMTPConfig, gatewayID string, logger Logger) *SMTPClientConnector {
	return &SMTPClientConnector{
		cfg:       cfg,
		gatewayID: gatewayID,
		logger:    orNoop(logger),
		send:      smtp.SendMail,
		now:       time.Now,
	}
}

// SetDataMessageListener accepts the listener. The SMTP client has no
// inbound traffic, so it is not used.
func (s *SMTPClientConnector) SetDataMessageListener(message.Listener) bool {
	return true
}

// Start validates the mail settings. No connection is held open; each
// alert opens its own SMTP session.
func (s *SMTPClientConnector) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.cfg.Host == "" || s.cfg.From == "" || len(s.cfg.To) == 0 {
		return fmt.Errorf("starting smtp client connector: %w", errSMTPNotConfigured)
	}

	s.started = true
	s.logger.Info("smtp client connector started", "host", s.cfg.Host, "recipients", len(s.cfg.To))
	return nil
}

// Stop disables alerting.
func (s *SMTPClientConnector) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	s.logger.Info("smtp client connector stopped")
	return nil
}

// Publish sends an alert when payload is a record with the error flag set.
// It returns false for records without the flag.
func (s *SMTPClientConnector) Publish(res data.ResourceName, payload string, _ int) bool {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if !started {
		return false
	}

	kind, ok := res.PayloadKind()
	if !ok {
		return false
	}
	r, err := data.FromJSON(payload, kind)
	if err != nil || !r.HasError() {
		return false
	}

	msg := s.buildMessage(res, r, payload)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.cfg.From, s.cfg.To, msg); err != nil {
		s.logger.Error("failed to send alert mail", "resource", res.String(), "error", err)
		return false
	}
	s.logger.Info("alert mail sent", "resource", res.String(), "name", r.Name())
	return true
}

// buildMessage renders an RFC 5322 message for the alert.
func (s *SMTPClientConnector) buildMessage(res data.ResourceName, r data.Record, payload string) []byte {
	subject := fmt.Sprintf("%s %s reported an error (status %d)",
		s.cfg.SubjectPrefix, r.Name(), r.StatusCode())
	subject = mime.QEncoding.Encode("utf-8", strings.TrimSpace(headerSafe(subject)))

	var b strings.Builder
	b.WriteString("From: " + s.cfg.From + "\r\n")
	b.WriteString("To: " + strings.Join(s.cfg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + s.now().UTC().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("Gateway: " + s.gatewayID + "\r\n")
	b.WriteString("Resource: " + res.String() + "\r\n")
	b.WriteString("Kind: " + r.Kind().String() + "\r\n")
	b.WriteString("Record time: " + r.TimeStamp().UTC().Format(time.RFC3339) + "\r\n")
	b.WriteString("\r\n")
	b.WriteString(payload)
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Compile-time interface checks.
var (
	_ message.Connector = (*SMTPClientConnector)(nil)
	_ message.Publisher = (*SMTPClientConnector)(nil)
)

// headerSafe folds CR and LF into spaces so a record name cannot start a new
// header line.
func headerSafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
