package handlers

import (
	"context"

	"github.com/cherriedy/ban-hang-so-api/app/dto"
	"github.com/cherriedy/ban-hang-so-api/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const serviceName = "ban-hang-so-api"

// SystemStats is the host section of the health report
type SystemStats struct {
	MemoryUsedPercent float64 `json:"memoryUsedPercent" example:"41.7"`
	UptimeSeconds     uint64  `json:"uptimeSeconds" example:"86400"`
}

// HealthResponse is the health report
type HealthResponse struct {
	Status    string       `json:"status" example:"ok"`
	Timestamp int64        `json:"timestamp"`
	Version   string       `json:"version" example:"1.0.0"`
	Service   string       `json:"service" example:"ban-hang-so-api"`
	System    *SystemStats `json:"system,omitempty"`
}

// HealthHandler serves liveness and the API root
type HealthHandler struct {
	base
	version string
	stats   func(ctx context.Context) (*SystemStats, error)
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{base: newBase(logger), version: version, stats: hostStats}
}

func hostStats(ctx context.Context) (*SystemStats, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return &SystemStats{MemoryUsedPercent: vm.UsedPercent, UptimeSeconds: uptime}, nil
}

// Health reports service status and host figures
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} dto.JSendResponse{data=HealthResponse}
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/health")
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: utils.UTCNow().Unix(),
		Version:   h.version,
		Service:   serviceName,
	}
	stats, err := h.stats(ctx)
	if err != nil {
		h.logger.Warn("Failed to read host stats", zap.Error(err))
	} else {
		resp.System = stats
	}
	return c.JSON(dto.Success(resp))
}

// Root greets API clients
// @Summary API root
// @Tags System
// @Produce json
// @Success 200 {object} object{message=string}
// @Router / [get]
func (h *HealthHandler) Root(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Welcome to Ban Hang So API"})
}
