package middleware

import (
	"net"
	"net/netip"
	"strings"

	"github.com/gin-gonic/gin"
)

// CtxRealIP holds the resolved client address used for rate-limit keys.
const CtxRealIP = "real_ip"

// RealIP resolves the client address into CtxRealIP. Forwarding headers
// (CF-Connecting-IP, X-Forwarded-For) are read only when the direct peer is
// one of trustedProxies; any other peer is keyed by its socket address.
// X-Forwarded-For is walked right to left and the first untrusted hop wins.
func RealIP(trustedProxies []string) gin.HandlerFunc {
	trusted := parsePrefixes(trustedProxies)
	return func(c *gin.Context) {
		c.Set(CtxRealIP, resolveClientIP(c, trusted))
		c.Next()
	}
}

func resolveClientIP(c *gin.Context, trusted []netip.Prefix) string {
	peer, ok := remoteAddr(c.Request.RemoteAddr)
	if !ok {
		return c.ClientIP()
	}
	if !contains(trusted, peer) {
		return peer.String()
	}

	if cf, err := netip.ParseAddr(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); err == nil {
		return cf.Unmap().String()
	}

	hops := strings.Split(c.GetHeader("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		hop = hop.Unmap()
		if !contains(trusted, hop) {
			return hop.String()
		}
	}
	return peer.String()
}

func remoteAddr(addr string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		host = addr
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

// parsePrefixes accepts bare IPs and CIDRs; malformed entries are skipped.
func parsePrefixes(entries []string) []netip.Prefix {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if ip, err := netip.ParseAddr(e); err == nil {
			ip = ip.Unmap()
			out = append(out, netip.PrefixFrom(ip, ip.BitLen()))
		}
	}
	return out
}

func contains(prefixes []netip.Prefix, ip netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
