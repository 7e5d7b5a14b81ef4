package domain

// TokenScale converts whole escrow dollars into the token service's smallest
// unit. The service manages six-decimal balances; the engine assumes this
// factor reflects the service's true precision rather than re-verifying it
// on every call.
const TokenScale = 1_000_000

// CapabilityWithdraw is the capability required for every privileged
// operation: schedule and window updates, batched withdrawals, termination,
// and excess rescue.
const CapabilityWithdraw = "withdraw"

// Authorizer answers capability checks for a caller principal.
// Grant administration lives outside this service; the engine only ever
// consumes the boolean check at the top of each privileged operation.
type Authorizer interface {
	// HasCapability reports whether the principal holds the capability.
	HasCapability(principal, capability string) bool
}

// TokenClient defines the operations the engine needs from the external
// value-transfer service. All amounts are in the service's smallest unit
// (see TokenScale). Calls are one-shot: the engine never retries, a failed
// transfer fails the whole operation.
type TokenClient interface {
	// Pull moves amount from the given account into escrow custody.
	// Requires a pre-authorized allowance from the source account.
	Pull(from string, amount int64) error

	// Push moves amount of the designated asset from escrow custody to the
	// given account.
	Push(to string, amount int64) error

	// PushAsset moves amount of an arbitrary asset held in escrow custody
	// to the given account. Used only by rescue for foreign assets; the
	// engine keeps no ledger for them.
	PushAsset(asset, to string, amount int64) error

	// BalanceOf returns the designated-asset balance held by the account.
	BalanceOf(holder string) (int64, error)
}
