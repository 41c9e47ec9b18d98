// Package docs 注册 OpenAPI 文档并提供 /openapi.json 与 /docs 两个入口
package docs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swaggo/swag"

	"tolk-server-go/internal/platform/logging"
	httptransport "tolk-server-go/internal/transport/http"
)

const scalarHTML = `<!DOCTYPE html>
<html lang="da">
	<head>
		<meta charset="utf-8" />
		<title>Tolk API Reference</title>
		<meta name="viewport" content="width=device-width, initial-scale=1" />
	</head>
	<body>
		<script
			id="api-reference"
			data-url="/openapi.json"
			data-layout="modern"
			src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"
		></script>
	</body>
</html>`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Tolk API",
	Description:      "Visitor and Danish host translation sessions: language selection, turns, recaps and speech.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// Register 挂载文档路由
func Register(engine *gin.Engine, logger *logging.Logger) {
	engine.GET("/openapi.json", func(c *gin.Context) {
		doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
		if err != nil {
			logger.ErrorTag("HTTP", "生成 OpenAPI 文档失败: %v", err)
			httptransport.RespondError(c, http.StatusInternalServerError, "failed to generate openapi spec", gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(doc))
	})

	engine.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(scalarHTML))
	})
}
