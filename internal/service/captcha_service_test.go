package service

import (
	"errors"
	"testing"

	"github.com/medcart/internal/config"
)

func TestCaptchaDisabledSkipsVerify(t *testing.T) {
	captcha := NewCaptchaService(config.CaptchaConfig{Enabled: false})
	if err := captcha.Verify(CaptchaVerifyPayload{}); err != nil {
		t.Fatalf("disabled captcha should pass, got %v", err)
	}
	if _, err := captcha.GenerateImageChallenge(); !errors.Is(err, ErrCaptchaDisabled) {
		t.Fatalf("expected captcha disabled, got %v", err)
	}
}

func TestCaptchaGenerateAndVerifyOnce(t *testing.T) {
	captcha := NewCaptchaService(config.CaptchaConfig{Enabled: true, Length: 4})
	challenge, err := captcha.GenerateImageChallenge()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if challenge.CaptchaID == "" || challenge.ImageBase64 == "" {
		t.Fatalf("unexpected challenge: %+v", challenge)
	}

	if err := captcha.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID}); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("expected captcha required, got %v", err)
	}
	answer := captcha.store.Get(challenge.CaptchaID, false)
	if err := captcha.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := captcha.Verify(CaptchaVerifyPayload{CaptchaID: challenge.CaptchaID, CaptchaCode: answer}); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("captcha must be single use, got %v", err)
	}
}
