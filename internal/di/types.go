// Package di wires the escrow service's dependencies: database,
// repositories, services, and background jobs, all via constructor
// injection.
package di

import (
	"github.com/aristath/escrow/internal/database"
	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/events"
	"github.com/aristath/escrow/internal/modules/deposits"
	"github.com/aristath/escrow/internal/modules/schedule"
	"github.com/aristath/escrow/internal/modules/window"
	"github.com/aristath/escrow/internal/scheduler"
	"github.com/aristath/escrow/internal/services"
)

// Container holds all wired dependencies
type Container struct {
	// Database
	EscrowDB *database.DB

	// Repositories
	DepositRepo   *deposits.Repository
	AggregateRepo *deposits.AggregateRepository
	ScheduleRepo  *schedule.Repository
	WindowRepo    *window.Repository

	// Collaborators
	TokenClient  domain.TokenClient
	Authorizer   domain.Authorizer
	EventManager *events.Manager

	// Services
	Escrow         *services.EscrowService
	Reconciliation *services.ReconciliationService

	// Background jobs
	Scheduler *scheduler.Scheduler
}
