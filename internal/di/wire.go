package di

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/auth"
	"github.com/aristath/escrow/internal/clients/tokenledger"
	"github.com/aristath/escrow/internal/config"
	"github.com/aristath/escrow/internal/database"
	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/events"
	"github.com/aristath/escrow/internal/modules/deposits"
	"github.com/aristath/escrow/internal/modules/schedule"
	"github.com/aristath/escrow/internal/modules/window"
	"github.com/aristath/escrow/internal/scheduler"
	"github.com/aristath/escrow/internal/services"
)

// Wire initializes all dependencies in order: database, repositories,
// external collaborators, services, and background jobs.
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Database (ledger profile: synchronous FULL, this is the money trail)
	escrowDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "escrow.db"),
		Profile: database.ProfileLedger,
		Name:    "escrow",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open escrow database: %w", err)
	}

	if err := escrowDB.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate escrow database: %w", err)
	}

	// Repositories
	conn := escrowDB.Conn()
	depositRepo := deposits.NewRepository(conn, log)
	aggregateRepo := deposits.NewAggregateRepository(conn, log)
	scheduleRepo := schedule.NewRepository(conn, log)
	windowRepo := window.NewRepository(conn, log)

	// Seed the default schedule so a fresh deployment is operable
	if err := scheduleRepo.EnsureDefault(schedule.Default()); err != nil {
		return nil, err
	}

	// External collaborators
	tokenClient := tokenledger.NewClient(
		cfg.TokenServiceURL, cfg.TokenAPIKey, cfg.TokenAsset, cfg.EscrowAccount, log)
	authorizer := auth.NewStaticAuthorizer(domain.CapabilityWithdraw, cfg.Withdrawers, log)
	eventManager := events.NewManager(log)

	// Services share one operation mutex: every engine operation runs to
	// completion before the next begins, reconciliation included.
	opMutex := &sync.Mutex{}

	escrowService := services.NewEscrowService(
		opMutex, conn,
		depositRepo, aggregateRepo, scheduleRepo, windowRepo,
		tokenClient, authorizer, eventManager, log)

	reconciliationService := services.NewReconciliationService(
		opMutex, aggregateRepo,
		tokenClient, authorizer, eventManager,
		cfg.EscrowAccount, cfg.TokenAsset, log)

	// Background jobs
	jobScheduler := scheduler.New(log)
	integrityJob := scheduler.NewIntegrityCheckJob(
		depositRepo, aggregateRepo, tokenClient, cfg.EscrowAccount, log)
	walJob := scheduler.NewWALCheckpointJob(escrowDB, log)

	if err := jobScheduler.AddJob("@every 15m", integrityJob); err != nil {
		return nil, fmt.Errorf("failed to register integrity check job: %w", err)
	}
	if err := jobScheduler.AddJob("@hourly", walJob); err != nil {
		return nil, fmt.Errorf("failed to register WAL checkpoint job: %w", err)
	}

	return &Container{
		EscrowDB:       escrowDB,
		DepositRepo:    depositRepo,
		AggregateRepo:  aggregateRepo,
		ScheduleRepo:   scheduleRepo,
		WindowRepo:     windowRepo,
		TokenClient:    tokenClient,
		Authorizer:     authorizer,
		EventManager:   eventManager,
		Escrow:         escrowService,
		Reconciliation: reconciliationService,
		Scheduler:      jobScheduler,
	}, nil
}
