package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenTestDB(t *testing.T) {
	db := OpenTestDB(t)

	var count int64
	require.NoError(t, db.Table("sessions").Count(&count).Error)
	assert.Zero(t, count)
}

func TestSetupTestLogger(t *testing.T) {
	logger := SetupTestLogger(t)
	require.NotNil(t, logger)
	logger.InfoTag("测试", "hello")
}

func TestSetupTestConfig(t *testing.T) {
	cfg := SetupTestConfig(t)
	assert.Equal(t, ":memory:", cfg.Database.DSN)
	assert.Equal(t, "da-DK", cfg.Languages.HostCode)
}
