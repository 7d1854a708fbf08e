package sandbox

import (
	"net"
	"net/http"
	"strings"
)

// originChecker 来源验证，未配置时允许所有来源
type originChecker struct {
	allowed  map[string]bool
	allowAll bool
}

func newOriginChecker(origins []string) *originChecker {
	oc := &originChecker{allowed: make(map[string]bool), allowAll: len(origins) == 0}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowed[strings.ToLower(origin)] = true
	}
	return oc
}

// Check 检查来源是否允许。没有 Origin 头的请求来自终端客户端，总是允许。
func (oc *originChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowed[strings.ToLower(origin)]
}

// clientIP 获取客户端 IP
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
