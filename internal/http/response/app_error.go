package response

import "github.com/gin-gonic/gin"

// AppError 携带业务码与错误类型，用于渲染错误信封
type AppError struct {
	Code    int
	Kind    string
	Message string
	Extra   gin.H
	Err     error
}

// NewAppError 创建错误，kind 为空时按业务码推断
func NewAppError(code int, kind, message string, err error) *AppError {
	if kind == "" {
		kind = KindForCode(code)
	}
	return &AppError{Code: code, Kind: kind, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithExtra 合并附加字段到 data
func (e *AppError) WithExtra(extra gin.H) *AppError {
	if len(extra) == 0 {
		return e
	}
	if e.Extra == nil {
		e.Extra = gin.H{}
	}
	for key, value := range extra {
		e.Extra[key] = value
	}
	return e
}

// Render 输出错误信封
func (e *AppError) Render(c *gin.Context) {
	ErrorWithKind(c, e.Code, e.Kind, e.Message, e.Extra)
}
