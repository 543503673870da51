package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"taskShare/internal/logger"

	"go.uber.org/zap"
)

// SMTP отправляет письма через внешний SMTP-сервер стандартной
// библиотекой: подходящего клиента в зависимостях проекта нет,
// а протокол здесь нужен в самом простом виде
type SMTP struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	// общий срок на всю сессию, контекст может его сократить
	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("подключение к smtp %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("установка срока соединения: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("открытие smtp-сессии: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("переход на tls: %w", err)
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("аутентификация на smtp: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("указание отправителя: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("указание получателя: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("открытие тела письма: %w", err)
	}
	if _, err := w.Write(buildMessage(s.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("запись тела письма: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("завершение тела письма: %w", err)
	}

	return client.Quit()
}

func (s *SMTP) SendBulk(ctx context.Context, recipients []string, subject, body string) BulkResult {
	result := BulkResult{}
	for _, to := range recipients {
		if err := s.Send(ctx, to, subject, body); err != nil {
			logger.Warn("Mailer: Письмо не доставлено", zap.String("to", to), zap.Error(err))
			result.Failed = append(result.Failed, to)
			continue
		}
		result.Sent++
	}
	return result
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
