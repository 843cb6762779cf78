package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/crashlens/internal/adapters/echarts"
	"github.com/samirrijal/crashlens/internal/adapters/postgres"
	"github.com/samirrijal/crashlens/internal/adapters/valkey"
	"github.com/samirrijal/crashlens/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. NATS, DB and
// Cache are optional.
type Dependencies struct {
	Dataset  *usecases.DatasetService
	Maps     *usecases.MapService
	Charts   *usecases.ChartService
	Renderer *echarts.Renderer
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
