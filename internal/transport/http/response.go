package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tolk-server-go/internal/platform/errors"
)

// APIResponse 定义统一的接口返回结构体
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// ProviderErrorData 供应商错误时附带的原始响应
type ProviderErrorData struct {
	Details string `json:"details"`
}

// RespondSuccess 返回成功响应
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}, message string) {
	if message == "" {
		message = "ok"
	}

	resp := APIResponse{
		Success: true,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondError 返回失败响应
func RespondError(c *gin.Context, httpStatus int, message string, data interface{}) {
	resp := APIResponse{
		Success: false,
		Message: message,
		Code:    httpStatus,
		Data:    data,
	}

	c.JSON(httpStatus, resp)
}

// RespondErr maps a domain error onto the envelope and status code.
func RespondErr(c *gin.Context, err error) {
	_ = c.Error(err)

	status := StatusFor(err)
	message := errors.MessageOf(err)

	var data interface{}
	if errors.KindOf(err) == errors.KindProvider {
		data = ProviderErrorData{Details: errors.DetailOf(err)}
	}
	RespondError(c, status, message, data)
}

// StatusFor 错误类别到 HTTP 状态码的映射
func StatusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindSessionNotFound, errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindUnsupportedLanguage, errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
