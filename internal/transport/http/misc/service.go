package misc

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"tolk-server-go/internal/platform/logging"
	httptransport "tolk-server-go/internal/transport/http"
)

// Status 服务运行状态
type Status struct {
	Version       string  `json:"version"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
}

// Service 杂项接口：ping、echo、状态
type Service struct {
	version string
	started time.Time
	logger  *logging.Logger
}

// NewService 创建杂项服务
func NewService(version string, logger *logging.Logger) *Service {
	return &Service{version: version, started: time.Now(), logger: logger}
}

// Register ping 注册在公开分组，其余需要认证
func (s *Service) Register(_ context.Context, public, secured *gin.RouterGroup) error {
	public.GET("/misc/ping", s.handlePing)
	secured.POST("/misc/echo", s.handleEcho)
	secured.GET("/misc/status", s.handleStatus)
	return nil
}

// handlePing 健康检查
// @Summary 健康检查
// @Tags Misc
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /misc/ping [get]
func (s *Service) handlePing(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, "pong", "pong")
}

// handleEcho 原样返回 JSON 请求体
// @Summary 回显
// @Tags Misc
// @Accept json
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /misc/echo [post]
func (s *Service) handleEcho(c *gin.Context) {
	var body interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, body, "")
}

// handleStatus 进程与主机资源状态
// @Summary 运行状态
// @Tags Misc
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /misc/status [get]
func (s *Service) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	status := Status{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Goroutines:    runtime.NumGoroutine(),
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	} else if err != nil {
		s.logger.DebugTag("HTTP", "读取 CPU 使用率失败: %v", err)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status.MemoryPercent = vm.UsedPercent
		status.MemoryUsedMB = vm.Used / 1024 / 1024
		status.MemoryTotalMB = vm.Total / 1024 / 1024
	} else {
		s.logger.DebugTag("HTTP", "读取内存信息失败: %v", err)
	}

	httptransport.RespondSuccess(c, http.StatusOK, status, "")
}
