package utils

import (
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClientIP returns the caller's address as seen through reverse proxies.
// X-Real-IP wins when it is public; otherwise the first public hop of
// X-Forwarded-For, then its first valid hop, then the socket address.
func ClientIP(c *gin.Context) string {
	if ip, ok := parseIP(c.GetHeader("X-Real-IP")); ok && isPublic(ip) {
		return ip.String()
	}

	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		var first string
		for _, hop := range strings.Split(forwarded, ",") {
			ip, ok := parseIP(hop)
			if !ok {
				continue
			}
			if isPublic(ip) {
				return ip.String()
			}
			if first == "" {
				first = ip.String()
			}
		}
		if first != "" {
			return first
		}
	}

	return c.ClientIP()
}

func parseIP(s string) (netip.Addr, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func isPublic(ip netip.Addr) bool {
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsUnspecified()
}
