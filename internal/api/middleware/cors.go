package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ConfigCORS allows every origin when allowedDomains is empty.
func ConfigCORS(allowedDomains []string) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	if len(allowedDomains) == 0 {
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = allowedDomains
	}
	conf.AllowHeaders = append(conf.AllowHeaders, "Authorization", "X-Request-ID")
	conf.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	conf.MaxAge = 12 * time.Hour

	return cors.New(conf)
}
