package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerPrefix = "github.com/noah-isme/idea-board/internal/"

// MetricsHandler serves the Prometheus scrape endpoint through Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Tracer returns the named tracer for a board package, e.g. Tracer("service/board").
func Tracer(name string) trace.Tracer {
	return otel.Tracer(tracerPrefix + name)
}
