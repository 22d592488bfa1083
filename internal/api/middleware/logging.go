package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/dilemmagame/internal/middleware"
)

// Logging logs each API request
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}
