package mailer

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Message хранит отправленное фейковым бэкендом письмо
type Message struct {
	To      string
	Subject string
	Body    string
}

// Fake пишет письма в память вместо сети. Используется в тестах
// и при локальном запуске, когда SMTP не настроен.
type Fake struct {
	mtx      sync.Mutex
	messages []Message
	failures map[string]error
	out      io.Writer
}

func NewFake() *Fake {
	return &Fake{failures: make(map[string]error)}
}

// NewConsole дополнительно печатает каждое письмо в w
func NewConsole(w io.Writer) *Fake {
	f := NewFake()
	f.out = w
	return f
}

// FailFor заставляет отправку указанному адресу завершаться ошибкой
func (f *Fake) FailFor(recipient string, err error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.failures[recipient] = err
}

func (f *Fake) Send(_ context.Context, to, subject, body string) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if err, ok := f.failures[to]; ok {
		return err
	}

	f.messages = append(f.messages, Message{To: to, Subject: subject, Body: body})
	if f.out != nil {
		fmt.Fprintf(f.out, "To: %s\nSubject: %s\n\n%s\n%s\n", to, subject, body, separator)
	}
	return nil
}

func (f *Fake) SendBulk(ctx context.Context, recipients []string, subject, body string) BulkResult {
	result := BulkResult{}
	for _, to := range recipients {
		if err := f.Send(ctx, to, subject, body); err != nil {
			result.Failed = append(result.Failed, to)
			continue
		}
		result.Sent++
	}
	return result
}

// Sent возвращает копию отправленных писем
func (f *Fake) Sent() []Message {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	out := make([]Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// Reset очищает журнал между тестами
func (f *Fake) Reset() {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.messages = nil
}

const separator = "--------------------------------------------------------------------------------"
