package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	credentialCookie = "auth-token"
	csrfCookie       = "csrf-token"
	csrfHeader       = "X-CSRF-Token"
	systemHeader     = "X-System-Token"
)

// Cookie policy shared by the auth endpoints and the authorizer middleware.
// Both cookies are HttpOnly with SameSite=Lax; Secure is flipped on in
// production so local development over plain HTTP keeps working.
type cookiePolicy struct {
	secure bool
}

func (p cookiePolicy) set(c *gin.Context, name, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p cookiePolicy) clear(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}
