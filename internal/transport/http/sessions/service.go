package sessions

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	eventrepo "tolk-server-go/internal/domain/eventbus/repository"
	"tolk-server-go/internal/domain/recap"
	"tolk-server-go/internal/domain/session/service"
	"tolk-server-go/internal/domain/speech"
	"tolk-server-go/internal/domain/turn"
	"tolk-server-go/internal/platform/errors"
	"tolk-server-go/internal/platform/logging"
	httptransport "tolk-server-go/internal/transport/http"
)

const defaultMaxUpload = 25 << 20

// Service 会话相关的 HTTP 传输层实现
type Service struct {
	sessions    *service.SessionService
	pipeline    *turn.Pipeline
	recaps      *recap.Aggregator
	synthesizer *speech.Synthesizer
	events      eventrepo.EventLog
	maxUpload   int64
	logger      *logging.Logger
}

// NewService 创建会话 HTTP 服务
func NewService(
	sessions *service.SessionService,
	pipeline *turn.Pipeline,
	recaps *recap.Aggregator,
	synthesizer *speech.Synthesizer,
	maxUpload int64,
	logger *logging.Logger,
) (*Service, error) {
	if sessions == nil || pipeline == nil || recaps == nil || synthesizer == nil {
		return nil, errors.New(errors.KindConfig, "sessions.new", "session services are required")
	}
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}
	return &Service{
		sessions:    sessions,
		pipeline:    pipeline,
		recaps:      recaps,
		synthesizer: synthesizer,
		maxUpload:   maxUpload,
		logger:      logger,
	}, nil
}

// WithEventLog exposes the per-session audit trail at GET /sessions/:id/events.
func (s *Service) WithEventLog(events eventrepo.EventLog) *Service {
	s.events = events
	return s
}

// Register 注册会话、翻译、摘要与语音合成路由
func (s *Service) Register(_ context.Context, router *gin.RouterGroup) error {
	group := router.Group("/sessions")
	group.POST("", s.handleStart)
	group.GET("", s.handleList)
	group.GET("/:id", s.handleGet)
	group.POST("/:id/language", s.handleSelectLanguage)
	group.POST("/:id/turns", s.handleTurn)
	group.POST("/:id/finish", s.handleFinish)
	group.GET("/:id/recap", s.handleRecap)
	if s.events != nil {
		group.GET("/:id/events", s.handleEvents)
	}

	router.POST("/transcribe", s.handleTranscribe)
	router.POST("/tts", s.handleSynthesize)

	s.logger.InfoTag("HTTP", "会话服务路由注册完成")
	return nil
}

// LanguageRequest 选择语言请求
type LanguageRequest struct {
	Code string `json:"code" binding:"required"`
}

// TurnRequest JSON 形式的文字翻译请求
type TurnRequest struct {
	From string `json:"from" form:"from"`
	To   string `json:"to" form:"to"`
	Text string `json:"text" form:"text"`
}

// FinishResponse 结束会话响应
type FinishResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// TranscribeResponse 仅转写响应
type TranscribeResponse struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// handleStart 创建会话
// @Summary 创建会话
// @Tags Sessions
// @Produce json
// @Success 201 {object} httptransport.APIResponse
// @Router /sessions [post]
func (s *Service) handleStart(c *gin.Context) {
	session, err := s.sessions.Start(c.Request.Context())
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, session, "session created")
}

// handleList 列出会话
// @Summary 列出会话
// @Tags Sessions
// @Produce json
// @Param limit query int false "page size, 0 or absent returns all, capped at 200"
// @Param offset query int false "offset"
// @Success 200 {object} httptransport.APIResponse
// @Router /sessions [get]
func (s *Service) handleList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		httptransport.RespondErr(c, errors.Validation("session.list", "limit must be a non-negative integer"))
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		httptransport.RespondErr(c, errors.Validation("session.list", "offset must be a non-negative integer"))
		return
	}
	sessions, err := s.sessions.List(c.Request.Context(), limit, offset)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, sessions, "")
}

// handleGet 获取会话及其翻译
// @Summary 获取会话
// @Tags Sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} httptransport.APIResponse
// @Failure 404 {object} httptransport.APIResponse
// @Router /sessions/{id} [get]
func (s *Service) handleGet(c *gin.Context) {
	session, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, session, "")
}

// handleEvents 会话的事件记录
// @Summary 会话事件记录
// @Tags Sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} httptransport.APIResponse
// @Failure 404 {object} httptransport.APIResponse
// @Router /sessions/{id}/events [get]
func (s *Service) handleEvents(c *gin.Context) {
	ctx := c.Request.Context()
	session, err := s.sessions.Require(ctx, c.Param("id"))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	events, err := s.events.ForSession(ctx, session.ID)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, events, "")
}

// handleSelectLanguage 选择访客语言
// @Summary 选择访客语言
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "session id"
// @Param body body LanguageRequest true "language"
// @Success 200 {object} httptransport.APIResponse
// @Failure 400 {object} httptransport.APIResponse
// @Router /sessions/{id}/language [post]
func (s *Service) handleSelectLanguage(c *gin.Context) {
	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondErr(c, errors.Validation("session.select_language", "'code' is required"))
		return
	}
	session, err := s.sessions.SelectLanguage(c.Request.Context(), c.Param("id"), strings.TrimSpace(req.Code))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, session, "language selected")
}

// handleTurn 执行一轮翻译
// @Summary 执行一轮翻译
// @Description multipart 上传 audio（可选 from/to/text 表单字段），或 JSON {from,to,text}
// @Tags Sessions
// @Accept mpfd,json
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} httptransport.APIResponse
// @Failure 502 {object} httptransport.APIResponse
// @Router /sessions/{id}/turns [post]
func (s *Service) handleTurn(c *gin.Context) {
	req := turn.Request{SessionID: c.Param("id")}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
		var form TurnRequest
		if err := c.ShouldBind(&form); err != nil {
			httptransport.RespondErr(c, errors.Validation("turn.bind", err.Error()))
			return
		}
		req.From, req.To, req.Text = form.From, form.To, form.Text

		audio, err := readAudio(c, "audio")
		if err != nil {
			httptransport.RespondErr(c, err)
			return
		}
		req.Audio = audio
	} else {
		var body TurnRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			httptransport.RespondErr(c, errors.Validation("turn.bind", "invalid JSON body"))
			return
		}
		req.From, req.To, req.Text = body.From, body.To, body.Text
	}

	result, err := s.pipeline.Execute(c.Request.Context(), req)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, result, "")
}

// handleFinish 结束会话
// @Summary 结束会话
// @Tags Sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} httptransport.APIResponse
// @Router /sessions/{id}/finish [post]
func (s *Service) handleFinish(c *gin.Context) {
	session, err := s.sessions.Finish(c.Request.Context(), c.Param("id"))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, FinishResponse{
		SessionID: session.ID,
		Status:    string(session.Status),
	}, "session finished")
}

// handleRecap 生成会话摘要
// @Summary 会话摘要
// @Tags Sessions
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} httptransport.APIResponse
// @Failure 502 {object} httptransport.APIResponse
// @Router /sessions/{id}/recap [get]
func (s *Service) handleRecap(c *gin.Context) {
	result, err := s.recaps.Recap(c.Request.Context(), c.Param("id"))
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, result, "")
}

// handleTranscribe 仅转写，不关联会话
// @Summary 仅转写
// @Tags Speech
// @Accept mpfd
// @Produce json
// @Param audio formData file true "audio file"
// @Param language formData string true "language code"
// @Success 200 {object} httptransport.APIResponse
// @Router /transcribe [post]
func (s *Service) handleTranscribe(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)
	lang := strings.TrimSpace(c.PostForm("language"))
	audio, err := readAudio(c, "audio")
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	if audio == nil {
		httptransport.RespondErr(c, errors.Validation("transcribe.bind", "'audio' file is required"))
		return
	}

	text, err := s.pipeline.TranscribeOnly(c.Request.Context(), lang, *audio)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, TranscribeResponse{Language: lang, Text: text}, "")
}

// handleSynthesize 解析音色并合成语音，直接返回音频
// @Summary 文字转语音
// @Tags Speech
// @Accept json
// @Produce octet-stream
// @Param body body speech.Request true "text and optional voice/lang/session_id"
// @Success 200 {file} binary
// @Router /tts [post]
func (s *Service) handleSynthesize(c *gin.Context) {
	var req speech.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondErr(c, errors.Validation("speech.bind", "invalid JSON body"))
		return
	}
	audio, err := s.synthesizer.Synthesize(c.Request.Context(), req)
	if err != nil {
		httptransport.RespondErr(c, err)
		return
	}
	c.Header("X-Voice", audio.Voice)
	c.Data(http.StatusOK, audio.ContentType, audio.Data)
}

// readAudio returns nil without error when the form has no such file.
func readAudio(c *gin.Context, field string) (*turn.AudioInput, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindValidation, "http.read_audio", "failed to read uploaded audio", err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, "http.read_audio", "failed to open uploaded audio", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(errors.KindValidation, "http.read_audio", "failed to read uploaded audio", err)
	}
	return &turn.AudioInput{Filename: header.Filename, Data: data}, nil
}
