package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// CookieManager mirrors issued token pairs into HttpOnly cookies for browser
// clients. The refresh cookie is scoped to the auth routes.
type CookieManager struct {
	Domain      string
	Secure      bool
	RefreshPath string
	Now         func() time.Time
}

func NewCookieManager(domain string, secure bool) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure, RefreshPath: "/api/auth", Now: time.Now}
}

func (m *CookieManager) SetPair(c *gin.Context, access string, aexp time.Time, refresh string, rexp time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, access, m.maxAgeFrom(aexp), "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshTokenCookie, refresh, m.maxAgeFrom(rexp), m.RefreshPath, m.Domain, m.Secure, true)
}

func (m *CookieManager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", m.Domain, m.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, m.RefreshPath, m.Domain, m.Secure, true)
}

// RefreshToken returns the refresh cookie, or "" when absent.
func (m *CookieManager) RefreshToken(c *gin.Context) string {
	v, err := c.Cookie(RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return v
}

func (m *CookieManager) maxAgeFrom(exp time.Time) int {
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	sec := int(exp.Sub(now).Seconds())
	if sec <= 0 {
		// MaxAge 0 would make a session cookie; expire it instead
		return -1
	}
	return sec
}
