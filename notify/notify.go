// Package notify delivers best-effort customer notifications: HTML mail
// over SMTP and JSON events on a kafka topic. Failures are logged and
// swallowed; nothing here may fail a request.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"github.com/segmentio/kafka-go"

	"bookbazaar-backend/config"
)

type Event struct {
	Type string         `json:"type"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data"`
}

type Service struct {
	smtp   config.SMTPConfig
	writer *kafka.Writer
	log    *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger) *Service {
	s := &Service{smtp: cfg.SMTP, log: log}
	if len(cfg.Kafka.Brokers) > 0 {
		s.writer = &kafka.Writer{
			Addr:     kafka.TCP(cfg.Kafka.Brokers...),
			Topic:    cfg.Kafka.Topic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return s
}

func (s *Service) Close() error {
	if s.writer != nil {
		return s.writer.Close()
	}
	return nil
}

func (s *Service) sendMail(to, subject, htmlBody string) error {
	if s.smtp.Host == "" || s.smtp.Port == "" || s.smtp.From == "" {
		return fmt.Errorf("SMTP not configured")
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n",
		s.smtp.From, to, subject)
	msg := []byte(headers + htmlBody)

	var auth smtp.Auth
	if s.smtp.Username != "" && s.smtp.Password != "" {
		auth = smtp.PlainAuth("", s.smtp.Username, s.smtp.Password, s.smtp.Host)
	}

	addr := s.smtp.Host + ":" + s.smtp.Port
	return smtp.SendMail(addr, auth, s.smtp.From, []string{to}, msg)
}

// mail delivers in the background; request handlers never wait on SMTP.
func (s *Service) mail(to, subject, body string) {
	go func() {
		if err := s.sendMail(to, subject, body); err != nil {
			s.log.Warn("failed to send email", "to", to, "subject", subject, "error", err)
		}
	}()
}

func (s *Service) publish(eventType string, data map[string]any) {
	if s.writer == nil {
		return
	}
	go func() {
		payload, err := json.Marshal(Event{Type: eventType, At: time.Now().UTC(), Data: data})
		if err != nil {
			s.log.Warn("failed to encode event", "type", eventType, "error", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(eventType),
			Value: payload,
		}); err != nil {
			s.log.Warn("failed to publish event", "type", eventType, "error", err)
		}
	}()
}

func (s *Service) Welcome(email, username string) {
	body := fmt.Sprintf(`<h2>Welcome to BookBazaar, %s!</h2>
<p>Your account is ready. You can now:</p>
<ul>
<li>Browse thousands of books</li>
<li>Build your cart and check out in seconds</li>
<li>Track your orders from your dashboard</li>
</ul>
<p>Happy reading!</p>
<p>The BookBazaar Team</p>`, username)
	s.mail(email, "Welcome to BookBazaar!", body)
	s.publish("user.registered", map[string]any{"email": email, "username": username})
}

func (s *Service) OrderConfirmation(email, username, orderNumber string, total float64) {
	body := fmt.Sprintf(`<h2>Order Confirmed!</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> has been placed successfully.</p>
<p>Order total: <strong>$%.2f</strong></p>
<p>We'll let you know when your order status changes.</p>
<p>The BookBazaar Team</p>`, username, orderNumber, total)
	s.mail(email, fmt.Sprintf("Order Confirmed - %s", orderNumber), body)
	s.publish("order.placed", map[string]any{
		"email":        email,
		"order_number": orderNumber,
		"total":        total,
	})
}

func (s *Service) OrderStatusUpdate(email, username, orderNumber, status string) {
	body := fmt.Sprintf(`<h2>Order Update</h2>
<p>Hi %s,</p>
<p>Your order <strong>%s</strong> is now: <strong>%s</strong></p>
<p>The BookBazaar Team</p>`, username, orderNumber, status)
	s.mail(email, fmt.Sprintf("Order %s - %s", orderNumber, status), body)
	s.publish("order.status_changed", map[string]any{
		"email":        email,
		"order_number": orderNumber,
		"status":       status,
	})
}

func (s *Service) SellerApproved(email, username string) {
	body := fmt.Sprintf(`<h2>You're approved!</h2>
<p>Hi %s,</p>
<p>Your seller account has been approved. You can now list books and
manage your inventory from the seller dashboard.</p>
<p>The BookBazaar Team</p>`, username)
	s.mail(email, "Your seller account is approved", body)
	s.publish("seller.approved", map[string]any{"email": email, "username": username})
}

func (s *Service) SellerRejected(email, username string) {
	body := fmt.Sprintf(`<h2>Seller application update</h2>
<p>Hi %s,</p>
<p>We could not approve your seller application at this time. Your
account remains active as a customer account, and you are welcome to
apply again.</p>
<p>The BookBazaar Team</p>`, username)
	s.mail(email, "Your seller application", body)
	s.publish("seller.rejected", map[string]any{"email": email, "username": username})
}
