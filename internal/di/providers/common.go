package providers

import "time"

const (
	// shutdownTimeout bounds graceful shutdown of each service.
	shutdownTimeout = 30 * time.Second

	// connectTimeout bounds connecting to a remote store at startup.
	connectTimeout = 15 * time.Second
)
