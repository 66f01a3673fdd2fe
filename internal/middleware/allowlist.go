package middleware

import (
	"net"
	"net/http"
	"strings"

	"passport-map/internal/logger"
)

// Allowlist：单 IP 与 CIDR 白名单（v4/v6）
// 约束：来源以 RemoteAddr 为准，不信任转发头；空名单表示不限制
type Allowlist struct {
	ips   map[string]struct{}
	cidrs []*net.IPNet
}

// ParseAllowlist：逗号分隔，如 "127.0.0.1,::1,10.0.0.0/8"；无法解析的条目忽略并记日志
func ParseAllowlist(s string) *Allowlist {
	a := &Allowlist{ips: map[string]struct{}{}}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			if _, n, err := net.ParseCIDR(p); err == nil {
				a.cidrs = append(a.cidrs, n)
				continue
			}
		} else if ip := net.ParseIP(p); ip != nil {
			a.ips[ip.String()] = struct{}{}
			continue
		}
		logger.L().Warn("allowlist_entry_invalid", "entry", p)
	}
	return a
}

func (a *Allowlist) Empty() bool {
	return a == nil || (len(a.ips) == 0 && len(a.cidrs) == 0)
}

func (a *Allowlist) Allowed(ip net.IP) bool {
	if a.Empty() {
		return true
	}
	if ip == nil {
		return false
	}
	if _, ok := a.ips[ip.String()]; ok {
		return true
	}
	for _, n := range a.cidrs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Wrap：不在名单内统一 403
func (a *Allowlist) Wrap(next http.Handler) http.Handler {
	if a.Empty() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := remoteIP(r)
		if !a.Allowed(ip) {
			logger.L().Debug("allowlist_block", "remote", r.RemoteAddr)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func remoteIP(r *http.Request) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
