package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/wenlng/go-captcha/v2/rotate"
)

// ErrCaptchaUnavailable is returned when the generator yields no challenge data
var ErrCaptchaUnavailable = errors.New("captcha generation produced no data")

// CaptchaService issues and checks rotate captchas guarding the login endpoint.
//
// A challenge is consumed by the first verification attempt, whatever the outcome.
type CaptchaService interface {
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

// RotateChallenge carries the images a client renders for a rotate challenge
type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

type captchaServiceImpl struct {
	rotator rotate.Captcha
	clock   clock.Clock
	ttl     time.Duration
	padding int

	mu         sync.Mutex
	challenges map[string]challenge
}

type challenge struct {
	angle     int
	expiresAt time.Time
}

// NewCaptchaServiceRotate builds a rotate captcha service. padding is the accepted
// angle error in degrees.
func NewCaptchaServiceRotate(clk clock.Clock, ttl time.Duration, padding int, imgSizePx int) CaptchaService {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if imgSizePx <= 0 {
		imgSizePx = 220
	}

	builder := rotate.NewBuilder(
		rotate.WithImageSquareSize(imgSizePx),
	)
	builder.SetResources(
		rotate.WithImages(backgrounds(3, imgSizePx)),
	)

	return &captchaServiceImpl{
		rotator:    builder.Make(),
		clock:      clk,
		ttl:        ttl,
		padding:    padding,
		challenges: make(map[string]challenge),
	}
}

func (s *captchaServiceImpl) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	captData, err := s.rotator.Generate()
	if err != nil {
		return nil, err
	}

	block := captData.GetData()
	if block == nil {
		return nil, ErrCaptchaUnavailable
	}

	masterB64, err := captData.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := captData.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s.put(id, block.Angle)

	return &RotateChallenge{
		ID:                id,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

func (s *captchaServiceImpl) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	angle, ok := s.take(challengeID)
	if !ok {
		return false
	}
	return rotate.Validate(int(math.Round(userAngle)), angle, s.padding)
}

// put stores a challenge and drops expired ones
func (s *captchaServiceImpl) put(id string, angle int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for k, c := range s.challenges {
		if now.After(c.expiresAt) {
			delete(s.challenges, k)
		}
	}
	s.challenges[id] = challenge{angle: angle, expiresAt: now.Add(s.ttl)}
}

// take removes the challenge and returns its angle if it has not expired
func (s *captchaServiceImpl) take(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return 0, false
	}
	delete(s.challenges, id)
	if s.clock.Now().After(c.expiresAt) {
		return 0, false
	}
	return c.angle, true
}

func backgrounds(n int, size int) []image.Image {
	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		imgs = append(imgs, gradient(size, size))
	}
	return imgs
}

// gradient draws a noisy radial gradient with a couple of translucent bars
func gradient(w, h int) image.Image {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x - w/2)
			dy := float64(y - h/2)
			t := math.Min(math.Sqrt(dx*dx+dy*dy)/float64(w/2), 1)
			base := uint8(200 - int(150*t))
			noise := uint8(rand.Intn(30))
			rgba.Set(x, y, color.RGBA{R: base + noise/3, G: base, B: 255 - base/2, A: 255})
		}
	}
	bar(rgba, 10, 10, w/3, h/12, color.RGBA{R: 255, G: 255, B: 255, A: 32})
	bar(rgba, w/2, h/3, w/3, h/10, color.RGBA{A: 24})
	return rgba
}

func bar(dst *image.RGBA, x, y, w, h int, c color.RGBA) {
	draw.Draw(dst, image.Rect(x, y, x+w, y+h), &image.Uniform{C: c}, image.Point{}, draw.Over)
}
