package utils

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cherriedy/ban-hang-so-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialsAvatarURL(t *testing.T) {
	got := InitialsAvatarURL(" Cafe Sua ")
	assert.Equal(t, "https://api.dicebear.com/9.x/initials/png?seed=Cafe+Sua&backgroundColor=b6e3f4%2Cc0aede%2Cd1d4f9", got)
}

func TestDayBounds(t *testing.T) {
	loc, err := LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)

	ts := time.Date(2024, 3, 9, 15, 4, 5, 6, loc)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, loc), StartOfDay(ts))
	assert.Equal(t, time.Date(2024, 3, 9, 23, 59, 59, 0, loc), EndOfDay(ts))
}

func TestIsOlderThan(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	assert.True(t, IsOlderThan(now.Add(-25*time.Hour), now, 24*time.Hour))
	assert.False(t, IsOlderThan(now.Add(-23*time.Hour), now, 24*time.Hour))
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LoggingConfig
		wantErr bool
	}{
		{name: "json stdout", cfg: config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{name: "console debug", cfg: config.LoggingConfig{Level: "debug", Format: "console", Output: "stdout", EnableCaller: true}},
		{name: "rotated file", cfg: config.LoggingConfig{Level: "warn", Output: "file", FilePath: filepath.Join(t.TempDir(), "app.log"), MaxSize: 1}},
		{name: "bad level", cfg: config.LoggingConfig{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			logger.Info("hello")
			_ = logger.Sync()
		})
	}
}

func TestRequestFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, EndpointKey, "/api/v1/health")
	fields := RequestFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "request_id", fields[0].Key)
	assert.Equal(t, "req-1", fields[0].String)
}
