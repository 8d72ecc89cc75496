package public

import (
	"errors"

	handlershared "github.com/medcart/internal/http/handlers/shared"
	"github.com/medcart/internal/http/response"
	"github.com/medcart/internal/service"

	"github.com/gin-gonic/gin"
)

// GetImageCaptcha 获取图片验证码挑战
func (h *Handler) GetImageCaptcha(c *gin.Context) {
	if h.CaptchaService == nil {
		respondError(c, response.CodeBadRequest, "error.captcha_disabled", nil)
		return
	}

	challenge, err := h.CaptchaService.GenerateImageChallenge()
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCaptchaDisabled):
			respondError(c, response.CodeBadRequest, "error.captcha_disabled", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal_error", err)
		}
		return
	}

	response.Success(c, gin.H{
		"captcha_id":   challenge.CaptchaID,
		"image_base64": challenge.ImageBase64,
	})
}

// verifyCaptcha 校验验证码，失败时已写出响应
func (h *Handler) verifyCaptcha(c *gin.Context, payload handlershared.CaptchaPayloadRequest) bool {
	if h.CaptchaService == nil || !h.CaptchaService.Enabled() {
		return true
	}
	if err := h.CaptchaService.Verify(payload.ToServicePayload()); err != nil {
		respondServiceError(c, err)
		return false
	}
	return true
}
