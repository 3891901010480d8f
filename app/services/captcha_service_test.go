package services

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCaptcha(t *testing.T) (*captchaServiceImpl, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	svc, ok := NewCaptchaServiceRotate(mock, time.Minute, 5, 120).(*captchaServiceImpl)
	require.True(t, ok)
	return svc, mock
}

func TestCaptchaGenerateRotate(t *testing.T) {
	svc, _ := newTestCaptcha(t)

	ch, err := svc.GenerateRotate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, ch.ID)
	assert.NotEmpty(t, ch.MasterImageBase64)
	assert.NotEmpty(t, ch.ThumbImageBase64)
	assert.Len(t, svc.challenges, 1)
}

func TestCaptchaVerifyRotate(t *testing.T) {
	ctx := context.Background()

	t.Run("correct angle within padding passes once", func(t *testing.T) {
		svc, _ := newTestCaptcha(t)
		svc.put("c1", 90)

		// the submitted rotation undoes the challenge angle: 90 + 266.6 is a full turn within padding
		assert.True(t, svc.VerifyRotate(ctx, "c1", 266.6))
		assert.False(t, svc.VerifyRotate(ctx, "c1", 270), "challenge must be consumed")
	})

	t.Run("echoing the challenge angle fails", func(t *testing.T) {
		svc, _ := newTestCaptcha(t)
		svc.put("c4", 90)

		assert.False(t, svc.VerifyRotate(ctx, "c4", 90))
	})

	t.Run("padding bounds", func(t *testing.T) {
		tests := []struct {
			angle float64
			ok    bool
		}{
			{angle: 265, ok: true},
			{angle: 275, ok: true},
			{angle: 264.4, ok: false},
			{angle: 275.6, ok: false},
		}
		for _, tt := range tests {
			svc, _ := newTestCaptcha(t)
			svc.put("c5", 90)
			assert.Equal(t, tt.ok, svc.VerifyRotate(ctx, "c5", tt.angle), "angle %v", tt.angle)
		}
	})

	t.Run("wrong angle fails and consumes", func(t *testing.T) {
		svc, _ := newTestCaptcha(t)
		svc.put("c2", 90)

		assert.False(t, svc.VerifyRotate(ctx, "c2", 200))
		assert.False(t, svc.VerifyRotate(ctx, "c2", 90))
	})

	t.Run("expired challenge fails", func(t *testing.T) {
		svc, mock := newTestCaptcha(t)
		svc.put("c3", 45)
		mock.Add(2 * time.Minute)

		assert.False(t, svc.VerifyRotate(ctx, "c3", 45))
	})

	t.Run("unknown challenge fails", func(t *testing.T) {
		svc, _ := newTestCaptcha(t)
		assert.False(t, svc.VerifyRotate(ctx, "missing", 0))
	})
}

func TestCaptchaPutDropsExpired(t *testing.T) {
	svc, mock := newTestCaptcha(t)
	svc.put("old", 10)
	mock.Add(2 * time.Minute)
	svc.put("new", 20)

	_, hasOld := svc.challenges["old"]
	assert.False(t, hasOld)
	assert.Len(t, svc.challenges, 1)
}
