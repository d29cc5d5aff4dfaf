package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"

	"github.com/mxi-labs/presale/internal/pkg/env"
)

func TestLogLevelFollowsAppEnv(t *testing.T) {
	defer func() { env.Env = nil }()

	env.Env = map[string]string{"APP_ENV": "dev"}
	assert.Equal(t, logger.Info, LogLevel())

	env.Env = map[string]string{"APP_ENV": "prod"}
	assert.Equal(t, logger.Warn, LogLevel())
}

func TestDSN(t *testing.T) {
	defer func() { env.Env = nil }()
	env.Env = map[string]string{
		"DB_USER":     "presale",
		"DB_PASSWORD": "secret",
		"DB_HOST":     "db",
		"DB_PORT":     "3307",
		"DB_NAME":     "mxi",
	}

	assert.Equal(t, "presale:secret@tcp(db:3307)/mxi?charset=utf8mb4&parseTime=True&loc=UTC", DSN())
}
