package api

import (
	"net/http"
	"strings"
)

// 文档注释：获取访问者 IP（用于 /locate）
// 背景：多层代理环境下，优先显式参数，其次常见反向代理头，最后回退远端地址。
// 约束：头部存在伪造风险；只用于初始视图定位，不参与任何鉴权。
func clientIP(r *http.Request) string {
	if q := strings.TrimSpace(r.URL.Query().Get("ip")); q != "" {
		return q
	}
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return strings.TrimSpace(x)
		}
	}
	if x := h.Get("forwarded"); x != "" {
		if ip := forwardedFor(x); ip != "" {
			return ip
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

// forwardedFor：RFC 7239 首个 for= 值
func forwardedFor(x string) string {
	i := strings.Index(strings.ToLower(x), "for=")
	if i < 0 {
		return ""
	}
	y := x[i+4:]
	if p := strings.IndexByte(y, ';'); p >= 0 {
		y = y[:p]
	}
	if p := strings.IndexByte(y, ','); p >= 0 {
		y = y[:p]
	}
	y = strings.Trim(y, "\" ")
	if strings.HasPrefix(y, "[") {
		if p := strings.IndexByte(y, ']'); p > 0 {
			return y[1:p]
		}
	}
	return y
}
