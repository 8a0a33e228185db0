package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORSConfig selects the browser origins allowed to call the API.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

// CORS lets the allowed origins read screening results and submit runs.
// No origins means any origin.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		ExposeHeaders: []string{"Retry-After", echo.HeaderXRequestID},
		MaxAge:        int(cfg.MaxAge / time.Second),
	})
}
