// Package postgresql provides PostgreSQL persistence implementation for flows,
// channels and execution state.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/sqlbase"
	_ "github.com/lib/pq" // postgres driver
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db            *sql.DB
	logger        *slog.Logger
	flowRepo      *FlowRepository
	channelRepo   *ChannelRepository
	executionRepo *ExecutionStateRepository
	processedRepo *ProcessedMessageRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:            database,
		logger:        logger,
		flowRepo:      NewFlowRepository(database, logger),
		channelRepo:   NewChannelRepository(database, logger),
		executionRepo: NewExecutionStateRepository(database),
		processedRepo: NewProcessedMessageRepository(database),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

func (p *Persistence) FlowRepository() persistence.FlowRepository {
	return p.flowRepo
}

func (p *Persistence) ChannelRepository() persistence.ChannelRepository {
	return p.channelRepo
}

func (p *Persistence) ExecutionStateRepository() persistence.ExecutionStateRepository {
	return p.executionRepo
}

func (p *Persistence) ProcessedMessageRepository() persistence.ProcessedMessageRepository {
	return p.processedRepo
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
