package domain

import "errors"

// Validation errors surfaced synchronously to the caller. Each one carries
// a specific reason and leaves no partial effect on the ledger.
var (
	// ErrDateTooEarly is returned when the requested cohort start is more
	// than 30 days in the past.
	ErrDateTooEarly = errors.New("cohort start date too early")

	// ErrDateTooLate is returned when the requested cohort start is more
	// than 180 days in the future.
	ErrDateTooLate = errors.New("cohort start date too late")

	// ErrInvalidStartDate is returned when the requested cohort start does
	// not match any currently published start window.
	ErrInvalidStartDate = errors.New("cohort start date not in current window")

	// ErrZeroAmount is returned for a deposit of zero dollars.
	ErrZeroAmount = errors.New("deposit amount must be positive")

	// ErrAmountTooLarge is returned for a deposit above the amount cap.
	// The cap keeps token-unit scaling and refund arithmetic within int64.
	ErrAmountTooLarge = errors.New("deposit amount exceeds maximum")

	// ErrDuplicateDeposit is returned when a live deposit record already
	// exists for the account.
	ErrDuplicateDeposit = errors.New("account already has a live deposit")

	// ErrNoDeposit is returned when an operation targets an account with no
	// live deposit record.
	ErrNoDeposit = errors.New("no live deposit for account")

	// ErrInvalidSchedule is returned when a proposed decay schedule fails
	// validation. The wrapped message names the specific reason.
	ErrInvalidSchedule = errors.New("invalid decay schedule")
)

// Authorization errors.
var (
	// ErrUnauthorized is returned when the caller lacks the capability a
	// privileged operation requires.
	ErrUnauthorized = errors.New("caller lacks required capability")
)

// External value-transfer errors. The token ledger client maps service
// responses onto these so the engine can surface a specific reason.
var (
	// ErrInsufficientAllowance is returned when the depositor has not
	// pre-authorized the transfer of the deposit amount.
	ErrInsufficientAllowance = errors.New("insufficient transfer allowance")

	// ErrInsufficientBalance is returned when the source account does not
	// hold the requested amount.
	ErrInsufficientBalance = errors.New("insufficient token balance")
)

// ErrInvariantViolation marks an arithmetic-safety or conservation failure.
// This is a fatal condition, not a recoverable error: the algorithms clamp
// every subtraction so it can only fire if the ledger itself is corrupt.
var ErrInvariantViolation = errors.New("ledger invariant violation")
