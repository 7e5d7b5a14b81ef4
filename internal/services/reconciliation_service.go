package services

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/events"
	"github.com/aristath/escrow/internal/modules/deposits"
)

// ReconciliationService computes and sweeps value held by the escrow account
// in excess of what the ledger tracks as owed: withdrawal dust and stray
// transfers. It shares the operation mutex with EscrowService so an excess
// reading never interleaves with a half-applied ledger mutation.
type ReconciliationService struct {
	mu            *sync.Mutex
	aggregate     *deposits.AggregateRepository
	tokens        domain.TokenClient
	authz         domain.Authorizer
	events        *events.Manager
	escrowAccount string
	asset         string // designated asset identity
	log           zerolog.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	mu *sync.Mutex,
	aggregateRepo *deposits.AggregateRepository,
	tokens domain.TokenClient,
	authz domain.Authorizer,
	eventManager *events.Manager,
	escrowAccount string,
	asset string,
	log zerolog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		mu:            mu,
		aggregate:     aggregateRepo,
		tokens:        tokens,
		authz:         authz,
		events:        eventManager,
		escrowAccount: escrowAccount,
		asset:         asset,
		log:           log.With().Str("service", "reconciliation").Logger(),
	}
}

// Excess returns the custodied designated-asset balance in excess of the
// tracked total, in the service's smallest unit. A custodied balance below
// the tracked total means value the ledger counts on is gone; that is a
// conservation failure, never a valid state.
func (r *ReconciliationService) Excess() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.excessLocked()
}

// excessLocked computes the excess with the operation mutex already held.
func (r *ReconciliationService) excessLocked() (int64, error) {
	custodied, err := r.tokens.BalanceOf(r.escrowAccount)
	if err != nil {
		return 0, fmt.Errorf("failed to read custodied balance: %w", err)
	}

	tracked, err := r.aggregate.Get()
	if err != nil {
		return 0, err
	}

	excess := custodied - tracked*domain.TokenScale
	if excess < 0 {
		return 0, fmt.Errorf("%w: custodied balance %d below tracked total %d",
			domain.ErrInvariantViolation, custodied, tracked*domain.TokenScale)
	}

	return excess, nil
}

// Rescue transfers stray value to the caller. For a foreign asset the
// requested amount is transferred unconditionally; the engine keeps no
// ledger for foreign assets. For the designated asset the requested amount
// is ignored and exactly the current excess is swept, so tracked deposits
// can never be drained. Returns the transferred amount in smallest units.
func (r *ReconciliationService) Rescue(caller, asset string, amount int64) (int64, error) {
	if !r.authz.HasCapability(caller, domain.CapabilityWithdraw) {
		return 0, domain.ErrUnauthorized
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if asset != r.asset {
		if err := r.tokens.PushAsset(asset, caller, amount); err != nil {
			return 0, err
		}

		r.events.Emit(&events.ExcessRescuedData{Asset: asset, Units: amount})
		r.log.Info().Str("asset", asset).Int64("units", amount).Msg("Foreign asset rescued")
		return amount, nil
	}

	excess, err := r.excessLocked()
	if err != nil {
		return 0, err
	}

	if err := r.tokens.Push(caller, excess); err != nil {
		return 0, err
	}

	r.events.Emit(&events.ExcessRescuedData{Asset: asset, Units: excess})
	r.log.Info().Int64("units", excess).Msg("Excess swept")
	return excess, nil
}
