// Package services provides the orchestration layer of the escrow engine.
//
// EscrowService coordinates deposits, buyer claims, seller withdrawals and
// terminations across the ledger repositories and the external token
// service. ReconciliationService sweeps value held in excess of what the
// ledger tracks.
package services

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/escrow/internal/database"
	"github.com/aristath/escrow/internal/domain"
	"github.com/aristath/escrow/internal/events"
	"github.com/aristath/escrow/internal/modules/decay"
	"github.com/aristath/escrow/internal/modules/deposits"
	"github.com/aristath/escrow/internal/modules/schedule"
	"github.com/aristath/escrow/internal/modules/window"
)

// Start date bounds relative to the deposit time. A cohort may have started
// recently (late enrollment) but not arbitrarily far in the past, and may be
// announced ahead of time but not arbitrarily far in the future.
const (
	MaxStartAge   = 30 * 24 * time.Hour
	MaxStartAhead = 180 * 24 * time.Hour
)

// MaxDepositDollars caps a single deposit so that scaling to token units
// (x1,000,000) and the percentage arithmetic in the decay engine (x100) both
// stay within int64.
const MaxDepositDollars = math.MaxInt64 / domain.TokenScale

// Entitlement is the read-only view of what a deposit is currently worth to
// each party.
type Entitlement struct {
	Account             string `json:"account"`
	PeriodsElapsed      int    `json:"periods_elapsed"`
	RefundableDollars   int64  `json:"refundable_dollars"`
	WithdrawableDollars int64  `json:"withdrawable_dollars"`
	RemainingBalance    int64  `json:"remaining_balance"`
}

// EscrowService orchestrates every ledger-mutating operation.
//
// All operations run to completion one at a time: a single mutex serializes
// them, and each executes inside one database transaction. The external
// token transfer is issued as the final step inside the transaction, after
// every ledger and counter mutation has been staged, so a failed transfer
// rolls the whole operation back and a committed operation always has its
// transfer completed. Nothing is retried here; callers re-issue failed calls.
type EscrowService struct {
	mu        *sync.Mutex
	conn      *sql.DB
	deposits  *deposits.Repository
	aggregate *deposits.AggregateRepository
	schedules *schedule.Repository
	windows   *window.Repository
	tokens    domain.TokenClient
	authz     domain.Authorizer
	events    *events.Manager
	log       zerolog.Logger
}

// NewEscrowService creates a new escrow service. The mutex is shared with
// ReconciliationService so reconciliation never observes a half-applied
// operation.
func NewEscrowService(
	mu *sync.Mutex,
	conn *sql.DB,
	depositRepo *deposits.Repository,
	aggregateRepo *deposits.AggregateRepository,
	scheduleRepo *schedule.Repository,
	windowRepo *window.Repository,
	tokens domain.TokenClient,
	authz domain.Authorizer,
	eventManager *events.Manager,
	log zerolog.Logger,
) *EscrowService {
	return &EscrowService{
		mu:        mu,
		conn:      conn,
		deposits:  depositRepo,
		aggregate: aggregateRepo,
		schedules: scheduleRepo,
		windows:   windowRepo,
		tokens:    tokens,
		authz:     authz,
		events:    eventManager,
		log:       log.With().Str("service", "escrow").Logger(),
	}
}

// UpdateSchedule validates and replaces the default decay schedule.
// Existing deposits keep their frozen snapshots.
func (s *EscrowService) UpdateSchedule(caller string, steps []int64) error {
	if !s.authz.HasCapability(caller, domain.CapabilityWithdraw) {
		return domain.ErrUnauthorized
	}

	newSchedule, err := schedule.FromSteps(steps)
	if err != nil {
		return err
	}
	if err := newSchedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withTransaction(func(tx *sql.Tx) error {
		return s.schedules.ReplaceTx(tx, newSchedule)
	})
	if err != nil {
		return err
	}

	s.events.Emit(&events.ScheduleUpdatedData{Steps: newSchedule.Steps()})
	return nil
}

// UpdateWindow replaces the published cohort start timestamps.
func (s *EscrowService) UpdateWindow(caller string, timestamps []int64) error {
	if !s.authz.HasCapability(caller, domain.CapabilityWithdraw) {
		return domain.ErrUnauthorized
	}

	newWindow, err := window.FromTimestamps(timestamps)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.withTransaction(func(tx *sql.Tx) error {
		return s.windows.ReplaceTx(tx, newWindow)
	})
	if err != nil {
		return err
	}

	s.events.Emit(&events.WindowUpdatedData{StartsAt: newWindow.Timestamps()})
	return nil
}

// Deposit creates a new escrow deposit for the account and pulls the
// deposited dollars from the account at the token service. The pull is the
// final step: a rejected pull (no allowance, no balance) leaves no ledger
// record behind.
func (s *EscrowService) Deposit(account string, priceDollars int64, cohortStart, now time.Time) error {
	if cohortStart.Before(now.Add(-MaxStartAge)) {
		return domain.ErrDateTooEarly
	}
	if cohortStart.After(now.Add(MaxStartAhead)) {
		return domain.ErrDateTooLate
	}

	if priceDollars <= 0 {
		return domain.ErrZeroAmount
	}
	if priceDollars > MaxDepositDollars {
		return domain.ErrAmountTooLarge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The window membership check runs under the mutex so a concurrent
	// UpdateWindow cannot retract the slot between validation and commit.
	currentWindow, err := s.windows.Get()
	if err != nil {
		return err
	}
	if !currentWindow.Contains(cohortStart.Unix()) {
		return domain.ErrInvalidStartDate
	}

	err = s.withTransaction(func(tx *sql.Tx) error {
		existing, err := s.deposits.GetTx(tx, account)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicateDeposit
		}

		snapshot, err := s.schedules.GetTx(tx)
		if err != nil {
			return err
		}

		rec := &deposits.Record{
			Account:          account,
			OriginalAmount:   priceDollars,
			RemainingBalance: priceDollars,
			CohortStart:      cohortStart,
			Schedule:         snapshot,
			CreatedAt:        now,
		}
		if err := s.deposits.CreateTx(tx, rec); err != nil {
			return err
		}
		if err := s.aggregate.AddTx(tx, priceDollars); err != nil {
			return err
		}

		// All ledger state is staged; the pull is the last step so a
		// rejected transfer rolls everything back.
		return s.tokens.Pull(account, priceDollars*domain.TokenScale)
	})
	if err != nil {
		return err
	}

	s.events.Emit(&events.DepositCreatedData{
		Account:     account,
		Dollars:     priceDollars,
		CohortStart: cohortStart.Unix(),
	})

	s.log.Info().
		Str("account", account).
		Int64("dollars", priceDollars).
		Time("cohort_start", cohortStart).
		Msg("Deposit created")

	return nil
}

// BuyerClaim refunds the account's current entitlement and closes the
// deposit. Claiming strictly before the cohort start refunds the full
// original amount; claiming after the schedule is exhausted refunds nothing
// but still closes the deposit. Returns the refunded dollars.
func (s *EscrowService) BuyerClaim(account string, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refund int64
	err := s.withTransaction(func(tx *sql.Tx) error {
		rec, err := s.deposits.GetTx(tx, account)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNoDeposit
		}

		refund = decay.Refundable(rec.OriginalAmount, rec.Schedule, rec.CohortStart, now)

		if err := s.aggregate.AddTx(tx, -refund); err != nil {
			return err
		}
		if err := s.deposits.DeleteTx(tx, account); err != nil {
			return err
		}

		return s.tokens.Push(account, refund*domain.TokenScale)
	})
	if err != nil {
		return 0, err
	}

	s.events.Emit(&events.BuyerClaimedData{Account: account, Dollars: refund})

	s.log.Info().
		Str("account", account).
		Int64("dollars", refund).
		Msg("Buyer claim paid")

	return refund, nil
}

// SellerWithdraw collects the no-longer-refundable portion of each listed
// deposit and pushes the combined total to the caller in one transfer.
//
// Accounts are processed in the order given. Duplicates are not
// deduplicated: each appearance reprocesses the then-current balance, which
// yields zero on the second pass unless time moved the schedule. The call is
// all-or-nothing: one account without a live record fails the whole batch
// and leaves the ledger unchanged. Returns the total withdrawn dollars.
func (s *EscrowService) SellerWithdraw(caller string, accounts []string, now time.Time) (int64, error) {
	if !s.authz.HasCapability(caller, domain.CapabilityWithdraw) {
		return 0, domain.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	err := s.withTransaction(func(tx *sql.Tx) error {
		for _, account := range accounts {
			rec, err := s.deposits.GetTx(tx, account)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("%w: %s", domain.ErrNoDeposit, account)
			}

			refundable := decay.Refundable(rec.OriginalAmount, rec.Schedule, rec.CohortStart, now)
			withdrawable := decay.SellerWithdrawable(rec.RemainingBalance, refundable)
			if withdrawable == 0 {
				continue
			}

			if err := s.deposits.UpdateRemainingTx(tx, account, rec.RemainingBalance-withdrawable); err != nil {
				return err
			}
			total += withdrawable
		}

		// One counter decrement and one transfer for the whole batch.
		if err := s.aggregate.AddTx(tx, -total); err != nil {
			return err
		}
		return s.tokens.Push(caller, total*domain.TokenScale)
	})
	if err != nil {
		return 0, err
	}

	s.events.Emit(&events.SellerWithdrawnData{Accounts: len(accounts), Dollars: total})

	s.log.Info().
		Int("accounts", len(accounts)).
		Int64("dollars", total).
		Msg("Seller withdrawal settled")

	return total, nil
}

// SellerTerminate settles a deposit immediately: the buyer receives the
// current refundable amount, the caller receives whatever remains, and the
// deposit is closed. The refund is clamped to the remaining balance so the
// split can never underflow. The buyer transfer is issued before the caller
// transfer. Returns the refund and leftover dollars.
func (s *EscrowService) SellerTerminate(caller, account string, now time.Time) (int64, int64, error) {
	if !s.authz.HasCapability(caller, domain.CapabilityWithdraw) {
		return 0, 0, domain.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var refund, leftover int64
	err := s.withTransaction(func(tx *sql.Tx) error {
		rec, err := s.deposits.GetTx(tx, account)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNoDeposit
		}

		refund = decay.Refundable(rec.OriginalAmount, rec.Schedule, rec.CohortStart, now)
		if refund > rec.RemainingBalance {
			refund = rec.RemainingBalance
		}
		leftover = rec.RemainingBalance - refund

		if err := s.aggregate.AddTx(tx, -(refund + leftover)); err != nil {
			return err
		}
		if err := s.deposits.DeleteTx(tx, account); err != nil {
			return err
		}

		if err := s.tokens.Push(account, refund*domain.TokenScale); err != nil {
			return err
		}
		return s.tokens.Push(caller, leftover*domain.TokenScale)
	})
	if err != nil {
		return 0, 0, err
	}

	s.events.Emit(&events.SellerTerminatedData{
		Account:         account,
		RefundDollars:   refund,
		LeftoverDollars: leftover,
	})

	s.log.Info().
		Str("account", account).
		Int64("refund_dollars", refund).
		Int64("leftover_dollars", leftover).
		Msg("Deposit terminated")

	return refund, leftover, nil
}

// Entitlement returns the read-only decay queries for an account.
func (s *EscrowService) Entitlement(account string, now time.Time) (*Entitlement, error) {
	rec, err := s.deposits.Get(account)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNoDeposit
	}

	refundable := decay.Refundable(rec.OriginalAmount, rec.Schedule, rec.CohortStart, now)
	return &Entitlement{
		Account:             account,
		PeriodsElapsed:      decay.PeriodsElapsed(rec.CohortStart, now),
		RefundableDollars:   refundable,
		WithdrawableDollars: decay.SellerWithdrawable(rec.RemainingBalance, refundable),
		RemainingBalance:    rec.RemainingBalance,
	}, nil
}

// CurrentSchedule returns the default decay schedule.
func (s *EscrowService) CurrentSchedule() (schedule.Schedule, error) {
	return s.schedules.Get()
}

// CurrentWindow returns the published cohort start timestamps.
func (s *EscrowService) CurrentWindow() (window.StartWindow, error) {
	return s.windows.Get()
}

// withTransaction runs fn inside a single transaction on the escrow ledger.
func (s *EscrowService) withTransaction(fn func(*sql.Tx) error) error {
	return database.WithTransaction(s.conn, fn)
}
