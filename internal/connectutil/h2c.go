package connectutil

import (
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	maxConcurrentStreams = 250
	maxReadFrameSize     = 1 << 20
	idleTimeout          = 2 * time.Minute
)

// H2CHandler serves unencrypted HTTP/2 next to HTTP/1.1 so Connect clients
// can use either on a plain listener.
func H2CHandler(handler http.Handler) http.Handler {
	return h2c.NewHandler(handler, &http2.Server{
		MaxConcurrentStreams: maxConcurrentStreams,
		MaxReadFrameSize:     maxReadFrameSize,
		IdleTimeout:          idleTimeout,
	})
}
