package mw

import "github.com/gin-gonic/gin"

// KeyFunc derives a per-request key for limiting or caching.
type KeyFunc func(c *gin.Context) string

// ByClientIP keys requests by the client address. Use it before the caller
// has been authenticated.
func ByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// ByPrincipal keys requests by the principal resolved earlier in the chain,
// falling back to the client address.
func ByPrincipal(c *gin.Context) string {
	if p := c.GetString(PrincipalKey); p != "" {
		return "p:" + p
	}
	return ByClientIP(c)
}

// ByURI keys requests by their request URI.
func ByURI(c *gin.Context) string {
	return c.Request.RequestURI
}
