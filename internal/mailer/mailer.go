// Package mailer отвечает за доставку писем получателям уведомлений
package mailer

import (
	"context"
	"fmt"
	"time"
)

// BulkResult подводит итог массовой рассылки: сколько писем ушло
// и кому доставить не удалось
type BulkResult struct {
	Sent   int
	Failed []string
}

// Mailer отправляет письма. Send возвращает ошибку только доставки
// конкретному получателю, SendBulk ошибки не возвращает вовсе:
// недоставленные адреса перечислены в результате.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
	SendBulk(ctx context.Context, recipients []string, subject, body string) BulkResult
}

// Config задаёт бэкенд рассылки и параметры SMTP
type Config struct {
	Backend  string        `mapstructure:"backend"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// New собирает почтовый бэкенд по имени из конфигурации
func New(cfg Config) (Mailer, error) {
	switch cfg.Backend {
	case "smtp":
		return NewSMTP(cfg), nil
	case "fake", "":
		return NewFake(), nil
	default:
		return nil, fmt.Errorf("неизвестный бэкенд рассылки: %q", cfg.Backend)
	}
}
