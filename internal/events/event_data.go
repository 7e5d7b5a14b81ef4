package events

// ScheduleUpdatedData contains data for ScheduleUpdated events
type ScheduleUpdatedData struct {
	Steps []int64 `json:"steps"`
}

// EventType returns the event type for ScheduleUpdatedData
func (d *ScheduleUpdatedData) EventType() EventType {
	return ScheduleUpdated
}

// WindowUpdatedData contains data for WindowUpdated events
type WindowUpdatedData struct {
	StartsAt []int64 `json:"starts_at"`
}

// EventType returns the event type for WindowUpdatedData
func (d *WindowUpdatedData) EventType() EventType {
	return WindowUpdated
}

// DepositCreatedData contains data for DepositCreated events
type DepositCreatedData struct {
	Account     string `json:"account"`
	Dollars     int64  `json:"dollars"`
	CohortStart int64  `json:"cohort_start"`
}

// EventType returns the event type for DepositCreatedData
func (d *DepositCreatedData) EventType() EventType {
	return DepositCreated
}

// BuyerClaimedData contains data for BuyerClaimed events
type BuyerClaimedData struct {
	Account string `json:"account"`
	Dollars int64  `json:"dollars"`
}

// EventType returns the event type for BuyerClaimedData
func (d *BuyerClaimedData) EventType() EventType {
	return BuyerClaimed
}

// SellerWithdrawnData contains data for SellerWithdrawn events
type SellerWithdrawnData struct {
	Accounts int   `json:"accounts"`
	Dollars  int64 `json:"dollars"`
}

// EventType returns the event type for SellerWithdrawnData
func (d *SellerWithdrawnData) EventType() EventType {
	return SellerWithdrawn
}

// SellerTerminatedData contains data for SellerTerminated events
type SellerTerminatedData struct {
	Account         string `json:"account"`
	RefundDollars   int64  `json:"refund_dollars"`
	LeftoverDollars int64  `json:"leftover_dollars"`
}

// EventType returns the event type for SellerTerminatedData
func (d *SellerTerminatedData) EventType() EventType {
	return SellerTerminated
}

// ExcessRescuedData contains data for ExcessRescued events
type ExcessRescuedData struct {
	Asset string `json:"asset"`
	Units int64  `json:"units"`
}

// EventType returns the event type for ExcessRescuedData
func (d *ExcessRescuedData) EventType() EventType {
	return ExcessRescued
}
