package http

import (
	"github.com/nats-io/nats.go"

	"github.com/ibaizabal/floodwatch/internal/adapters/postgres"
	"github.com/ibaizabal/floodwatch/internal/adapters/valkey"
	"github.com/ibaizabal/floodwatch/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Assessments *usecases.AssessmentService
	History     *usecases.HistoryService
	Watchpoints *usecases.WatchpointService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
