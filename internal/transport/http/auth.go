package httptransport

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tolk-server-go/internal/domain/auth"
	"tolk-server-go/internal/platform/logging"
)

const subjectKey = "auth.subject"

// AuthMiddleware accepts either a matching x-api-key header or an HS256 bearer token.
// Returns nil when neither an api key nor a jwt secret is configured.
func AuthMiddleware(apiKey string, tokens *auth.AuthToken, logger *logging.Logger) gin.HandlerFunc {
	if apiKey == "" && !tokens.Enabled() {
		return nil
	}
	return func(c *gin.Context) {
		if key := c.GetHeader("x-api-key"); key != "" {
			if apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
				c.Set(subjectKey, "api-key")
				c.Next()
				return
			}
			logger.WarnTag("HTTP", "无效的 API key，来自 %s", c.ClientIP())
			RespondError(c, http.StatusUnauthorized, "invalid api key", nil)
			c.Abort()
			return
		}

		header := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if header == "" || token == "" || token == header {
			RespondError(c, http.StatusUnauthorized, "missing credentials", nil)
			c.Abort()
			return
		}
		if !tokens.Enabled() {
			RespondError(c, http.StatusUnauthorized, "bearer tokens are not accepted", nil)
			c.Abort()
			return
		}
		subject, err := tokens.VerifyToken(token)
		if err != nil {
			logger.WarnTag("HTTP", "token 校验失败: %v", err)
			RespondError(c, http.StatusUnauthorized, "invalid token", nil)
			c.Abort()
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}
