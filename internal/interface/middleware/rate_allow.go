package middleware

import (
	"net/netip"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP exempts loopback and RFC 1918 / ULA clients from rate
// limits. The address comes from RealIP, so it is only a forwarded value
// when the peer is a trusted proxy.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		ip, err := netip.ParseAddr(ipFromCtx(c))
		if err != nil {
			return false
		}
		ip = ip.Unmap()
		return ip.IsLoopback() || ip.IsPrivate()
	}
}
