package i18n

import (
	"fmt"
	"strings"

	"github.com/medcart/internal/constants"

	"github.com/gin-gonic/gin"
)

const localeContextKey = "locale"

var catalogs = map[string]map[string]string{
	constants.LocaleEnUS: enUS,
	constants.LocaleZhCN: zhCN,
}

// T 返回指定语言的消息，缺失时依次回退默认语言与键名
func T(locale, key string, args ...interface{}) string {
	msg, ok := lookup(NormalizeLocale(locale), key)
	if !ok {
		msg, ok = lookup(constants.LocaleEnUS, key)
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// Has 判断消息键是否存在
func Has(key string) bool {
	_, ok := lookup(constants.LocaleEnUS, key)
	return ok
}

func lookup(locale, key string) (string, bool) {
	catalog, ok := catalogs[locale]
	if !ok {
		return "", false
	}
	msg, ok := catalog[key]
	return msg, ok
}

// NormalizeLocale 归一化语言标识，未知语言回退 en-US
func NormalizeLocale(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return constants.LocaleEnUS
	}
	value = strings.ReplaceAll(value, "_", "-")
	for _, locale := range constants.SupportedLocales {
		if strings.ToLower(locale) == value {
			return locale
		}
	}
	switch {
	case strings.HasPrefix(value, "zh"):
		return constants.LocaleZhCN
	case strings.HasPrefix(value, "en"):
		return constants.LocaleEnUS
	}
	return ""
}

// ParseAcceptLanguage 解析 Accept-Language，返回第一个支持的语言
func ParseAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(part)
		if idx := strings.Index(tag, ";"); idx >= 0 {
			tag = strings.TrimSpace(tag[:idx])
		}
		if tag == "" || tag == "*" {
			continue
		}
		if locale := NormalizeLocale(tag); locale != "" {
			return locale
		}
	}
	return constants.LocaleEnUS
}

// ResolveLocale 从请求上下文解析语言（?lang= 优先于 Accept-Language）
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return constants.LocaleEnUS
	}
	if cached, ok := c.Get(localeContextKey); ok {
		if locale, ok := cached.(string); ok && locale != "" {
			return locale
		}
	}
	locale := ""
	if c.Request != nil {
		if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
			locale = NormalizeLocale(lang)
		}
		if locale == "" {
			locale = ParseAcceptLanguage(c.GetHeader("Accept-Language"))
		}
	}
	if locale == "" {
		locale = constants.LocaleEnUS
	}
	c.Set(localeContextKey, locale)
	return locale
}
