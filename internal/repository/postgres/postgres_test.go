package postgres_test

import (
	"context"
	"taskShare/internal/repository/postgres"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNewPool_InvalidURL тестирует отказ на непригодной строке подключения
func TestNewPool_InvalidURL(t *testing.T) {
	tests := []struct {
		name       string
		connString string
	}{
		{
			name:       "not a dsn",
			connString: "invalid",
		},
		{
			name:       "wrong scheme",
			connString: "http://localhost:5432/testdb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			_, err := postgres.NewPool(ctx, postgres.PoolConfig{URL: tt.connString})
			assert.Error(t, err)
		})
	}
}

// TestMigrate_InvalidURL тестирует отказ мигратора на непригодной строке подключения
func TestMigrate_InvalidURL(t *testing.T) {
	err := postgres.Migrate("invalid-url")
	assert.Error(t, err)
}
