package admin

import (
	handlershared "github.com/medcart/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

func currentUserID(c *gin.Context) uint {
	value, ok := c.Get(handlershared.ContextUserIDKey)
	if !ok {
		return 0
	}
	id, _ := value.(uint)
	return id
}
