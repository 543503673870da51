// Package identity отвечает на вопрос «кто делает запрос».
// Источник правды о пользователях лежит в хранилище, здесь только
// сопоставление предъявленного токена с идентификатором.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownToken возвращается для токена, не прошедшего проверку
var ErrUnknownToken = errors.New("неизвестный токен")

// Provider превращает предъявленный токен в идентификатор пользователя
type Provider interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// StaticProvider хранит таблицу токенов из конфигурации.
// Этого достаточно для сервисных вызовов и локального запуска,
// внешняя аутентификация остаётся за пределами ядра.
type StaticProvider struct {
	tokens map[string]uuid.UUID
}

// NewStaticProvider разбирает таблицу токен -> идентификатор пользователя
func NewStaticProvider(tokens map[string]string) (*StaticProvider, error) {
	parsed := make(map[string]uuid.UUID, len(tokens))
	for token, rawID := range tokens {
		if token == "" {
			return nil, errors.New("пустой токен в конфигурации")
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("разбор идентификатора пользователя %q: %w", rawID, err)
		}
		parsed[token] = id
	}
	return &StaticProvider{tokens: parsed}, nil
}

func (p *StaticProvider) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := p.tokens[token]
	if !ok {
		return uuid.Nil, ErrUnknownToken
	}
	return id, nil
}
