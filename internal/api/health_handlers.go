package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"storage": s.checkStorage(ctx),
		"catalog": s.checkCatalog(),
	}

	overall := "healthy"
	for _, c := range components {
		switch {
		case c.Status == "unhealthy":
			overall = "unhealthy"
		case c.Status == "degraded" && overall == "healthy":
			overall = "degraded"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkStorage pings the configured store.
func (s *Server) checkStorage(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "storage not configured",
		}
	}

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("storage health check failed", "error", err)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "storage unreachable",
		}
	}

	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

// checkCatalog reports an empty or missing catalog as degraded.
func (s *Server) checkCatalog() ComponentHealth {
	if s.services.Catalog == nil {
		return ComponentHealth{
			Status:  "degraded",
			Message: "catalog not configured",
		}
	}
	if len(s.services.Catalog.GetAllBooks()) == 0 {
		return ComponentHealth{
			Status:  "degraded",
			Message: "catalog empty",
		}
	}
	return ComponentHealth{Status: "healthy"}
}
