package endpoints

import (
	"github.com/kdocs/docuflow/internal/api"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	SwaggerSpecPath string
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	swagger := &SwaggerEndpoint{SpecPath: cfg.SwaggerSpecPath}
	eps := []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},
		&MetricsEndpoint{},

		// Document endpoints
		&StructureEndpoint{},
		&TranslateEndpoint{},
		&GenerateEndpoint{},
		&OutputEndpoint{},

		// Swagger/OpenAPI endpoints
		swagger,
		&SwaggerUIEndpoint{},
	}
	swagger.Routes = api.RoutesOf(eps)
	return eps
}
