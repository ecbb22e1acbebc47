package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/penta/llm-email-classifier/internal/config"
	"github.com/penta/llm-email-classifier/internal/core"
	"github.com/penta/llm-email-classifier/internal/utils"
	"go.uber.org/zap"
)

// SMTPGateway receives inbound mail, classifies it, stamps the
// classification into message headers and optionally relays the annotated
// message upstream. Classification failures annotate the message instead of
// bouncing it; mail flow must not depend on the model being reachable.
type SMTPGateway struct {
	service       *core.ClassificationService
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	cfg           config.ServerConfig
	maxBodySize   int
	server        *smtp.Server
}

// NewSMTPGateway creates a new SMTP ingestion gateway
func NewSMTPGateway(
	service *core.ClassificationService,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
	cfg config.ServerConfig,
	maxBodySize int,
) *SMTPGateway {
	return &SMTPGateway{
		service:       service,
		textProcessor: textProcessor,
		logger:        logger,
		cfg:           cfg,
		maxBodySize:   maxBodySize,
	}
}

// Start starts the SMTP server
func (g *SMTPGateway) Start() error {
	g.server = smtp.NewServer(&smtpBackend{gateway: g})

	g.server.Addr = g.cfg.ListenAddress
	g.server.Domain = "localhost"
	g.server.ReadTimeout = 30 * time.Second
	g.server.WriteTimeout = 30 * time.Second
	g.server.MaxMessageBytes = 30 * 1024 * 1024
	g.server.MaxRecipients = 50
	g.server.AllowInsecureAuth = true

	g.logger.Info("SMTP gateway starting", zap.String("address", g.cfg.ListenAddress))

	go func() {
		if err := g.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				g.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP server
func (g *SMTPGateway) Stop() error {
	if g.server != nil {
		return g.server.Close()
	}
	return nil
}

// annotate builds the outbound message: classification headers, optionally a
// tagged subject for spam, then the original message.
func (g *SMTPGateway) annotate(raw []byte, msg *mail.Message, result *core.ClassificationResult, classifyErr error) []byte {
	var out bytes.Buffer

	fmt.Fprintf(&out, "%s: %s\r\n", g.cfg.CategoryHeader, result.PrimaryCategory)
	fmt.Fprintf(&out, "%s: %.4f\r\n", g.cfg.ConfidenceHeader, result.Confidence)
	fmt.Fprintf(&out, "%s: %s\r\n", g.cfg.PriorityHeader, result.Priority)
	if g.service.NeedsReview(result) {
		fmt.Fprintf(&out, "%s: needs-review\r\n", g.cfg.ReviewHeader)
	}
	if classifyErr != nil {
		fmt.Fprintf(&out, "X-Email-Classification-Error: %s\r\n", classifyErr.Error())
	}

	if result.PrimaryCategory == core.CategorySpam && g.cfg.TagSpamSubject && g.cfg.SpamSubjectPrefix != "" {
		subject := msg.Header.Get("Subject")
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			subject = decoded
		}
		if !strings.HasPrefix(subject, g.cfg.SpamSubjectPrefix) {
			fmt.Fprintf(&out, "Subject: %s%s\r\n", g.cfg.SpamSubjectPrefix, subject)
			// Drop the original Subject line so the tagged one wins
			raw = removeHeaderLine(raw, "Subject")
		}
	}

	out.Write(raw)
	return out.Bytes()
}

// relay forwards the annotated message to the configured upstream
func (g *SMTPGateway) relay(sender string, recipients []string, emailData []byte) error {
	upstream := fmt.Sprintf("%s:%d", g.cfg.RelayAddress, g.cfg.RelayPort)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", upstream, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to upstream: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			g.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		g.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// removeHeaderLine strips a header (including continuation lines) from the
// raw message
func removeHeaderLine(raw []byte, name string) []byte {
	header, body := splitHeaderBody(raw)
	lines := bytes.Split(header, []byte("\n"))
	var kept [][]byte
	skipping := false
	prefix := []byte(strings.ToLower(name) + ":")
	for _, line := range lines {
		if skipping && (bytes.HasPrefix(line, []byte(" ")) || bytes.HasPrefix(line, []byte("\t"))) {
			continue
		}
		skipping = false
		if bytes.HasPrefix(bytes.ToLower(line), prefix) {
			skipping = true
			continue
		}
		kept = append(kept, line)
	}
	out := bytes.Join(kept, []byte("\n"))
	if body != nil {
		out = append(out, '\n')
		out = append(out, body...)
	}
	return out
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	gateway *SMTPGateway
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		gateway:    b.gateway,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	gateway    *SMTPGateway
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Logout terminates the session
func (s *smtpSession) Logout() error {
	return nil
}

// AuthPlain handles PLAIN authentication (not needed for the gateway)
func (s *smtpSession) AuthPlain(_, _ string) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data receives the message, classifies it and relays the annotated copy
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.gateway.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.gateway.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	textContent, err := extractTextFromMessage(msg)
	if err != nil {
		s.gateway.logger.Error("Failed to extract text content", zap.Error(err))
		return err
	}

	subject := msg.Header.Get("Subject")
	if decoded, decErr := decodeEncodedHeader(subject); decErr == nil {
		subject = decoded
	}

	email := core.NewEmail(
		subject,
		s.gateway.textProcessor.TruncateText(textContent, s.gateway.maxBodySize),
		s.sender,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	result, classifyErr := s.gateway.service.Classify(ctx, email)
	if classifyErr != nil {
		s.gateway.logger.Error("Failed to classify email",
			zap.Error(classifyErr),
			zap.String("sender", s.sender))

		// Annotate with the guaranteed fallback shape; never bounce mail
		// because the classifier is down
		result = core.FallbackResult(classifyErr)
	}

	s.gateway.logger.Info("Inbound email processed",
		zap.String("sender", s.sender),
		zap.String("category", result.PrimaryCategory.String()),
		zap.Float64("confidence", result.Confidence),
		zap.String("priority", string(result.Priority)))

	annotated := s.gateway.annotate(rawData, msg, result, classifyErr)

	if s.gateway.cfg.RelayEnabled {
		if err := s.gateway.relay(s.sender, s.recipients, annotated); err != nil {
			s.gateway.logger.Error("Failed to relay annotated email", zap.Error(err))
			return fmt.Errorf("451 Temporary failure relaying message")
		}
	}

	return nil
}
