package util

import (
	"errors"
	"net/url"
	"strings"
)

// ValidateResourceURL 校验提交链接，只接受 http/https 绝对地址
func ValidateResourceURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid url: " + raw)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return errors.New("url must be an absolute http(s) address: " + raw)
	}
	return nil
}
