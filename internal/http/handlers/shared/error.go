package shared

import (
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/i18n"
	"github.com/medcart/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString(ContextRequestIDKey); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithKind(c, code, "", key, nil, err)
}

// RespondErrorWithKind 返回指定错误类型的国际化响应，extra 合并进 data。
func RespondErrorWithKind(c *gin.Context, code int, kind, key string, extra gin.H, err error, args ...interface{}) {
	msg := i18n.T(i18n.ResolveLocale(c), key, args...)
	respond(c, response.NewAppError(code, kind, msg, err).WithExtra(extra))
}

func respond(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"kind", appErr.Kind,
			"message", appErr.Message,
			"error", appErr.Err,
		)
	}
	appErr.Render(c)
}
