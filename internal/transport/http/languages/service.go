package languages

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tolk-server-go/internal/domain/language"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	httptransport "tolk-server-go/internal/transport/http"
)

// Service 语言设置与音色目录的 HTTP 传输层实现
type Service struct {
	languages *language.Service
	logger    *logging.Logger
}

// NewService 创建语言设置 HTTP 服务
func NewService(languages *language.Service, logger *logging.Logger) (*Service, error) {
	if languages == nil {
		return nil, errors.New(errors.KindConfig, "languages.new", "language service is required")
	}
	return &Service{languages: languages, logger: logger}, nil
}

// Register 注册语言相关路由
func (s *Service) Register(_ context.Context, router *gin.RouterGroup) error {
	group := router.Group("/languages")
	group.GET("/settings", s.handleList)
	group.PUT("/settings", s.handleBulkUpdate)
	group.GET("/settings/:code", s.handleGet)
	group.PUT("/settings/:code", s.handleUpdate)
	group.GET("/enabled", s.handleEnabled)
	group.GET("/available", s.handleAvailable)
	group.POST("/seed", s.handleSeed)

	router.GET("/voices", s.handleVoices)

	s.logger.InfoTag("HTTP", "语言服务路由注册完成")
	return nil
}

// handleList 列出语言设置
// @Summary 列出语言设置
// @Tags Languages
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /languages/settings [get]
func (s *Service) handleList(c *gin.Context) {
	settings, err := s.languages.List(c.Request.Context())
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, settings, "")
}

// handleGet 获取单个语言设置
// @Summary 获取语言设置
// @Tags Languages
// @Produce json
// @Param code path string true "language code"
// @Success 200 {object} httptransport.APIResponse
// @Failure 404 {object} httptransport.APIResponse
// @Router /languages/settings/{code} [get]
func (s *Service) handleGet(c *gin.Context) {
	setting, err := s.languages.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, setting, "")
}

// handleUpdate 部分更新语言设置
// @Summary 更新语言设置
// @Tags Languages
// @Accept json
// @Produce json
// @Param code path string true "language code"
// @Param body body language.SettingPatch true "fields to change"
// @Success 200 {object} httptransport.APIResponse
// @Router /languages/settings/{code} [put]
func (s *Service) handleUpdate(c *gin.Context) {
	var patch language.SettingPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httptransport.RespondErr(c, errors.Validation("language.update", "invalid JSON body"))
		return
	}
	code := c.Param("code")
	patch.Code = code
	setting, err := s.languages.Update(c.Request.Context(), code, patch)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, setting, "language updated")
}

// handleBulkUpdate 批量更新，不存在的语言会被创建
// @Summary 批量更新语言设置
// @Tags Languages
// @Accept json
// @Produce json
// @Param body body []language.SettingPatch true "settings"
// @Success 200 {object} httptransport.APIResponse
// @Router /languages/settings [put]
func (s *Service) handleBulkUpdate(c *gin.Context) {
	var patches []language.SettingPatch
	if err := c.ShouldBindJSON(&patches); err != nil {
		httptransport.RespondErr(c, errors.Validation("language.bulk_update", "expected a JSON array of settings"))
		return
	}
	result, err := s.languages.BulkUpdate(c.Request.Context(), patches)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, result, "languages updated")
}

// handleEnabled 列出已启用语言
// @Summary 已启用语言
// @Tags Languages
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /languages/enabled [get]
func (s *Service) handleEnabled(c *gin.Context) {
	settings, err := s.languages.Enabled(c.Request.Context())
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, settings, "")
}

// handleAvailable 可供访客选择的语言
// @Summary 可选访客语言
// @Tags Languages
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /languages/available [get]
func (s *Service) handleAvailable(c *gin.Context) {
	available, err := s.languages.Available(c.Request.Context())
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, available, "")
}

// handleSeed 从音色目录初始化语言设置
// @Summary 初始化语言设置
// @Tags Languages
// @Produce json
// @Param refresh query bool false "refetch the voice catalog first"
// @Success 200 {object} httptransport.APIResponse
// @Router /languages/seed [post]
func (s *Service) handleSeed(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))
	result, err := s.languages.Seed(c.Request.Context(), refresh)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, result, "languages seeded")
}

// handleVoices 音色目录
// @Summary 可用音色
// @Tags Speech
// @Produce json
// @Success 200 {object} httptransport.APIResponse
// @Router /voices [get]
func (s *Service) handleVoices(c *gin.Context) {
	voices, err := s.languages.Voices(c.Request.Context())
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, voices, "")
}
