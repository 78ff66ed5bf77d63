package dto

type OverviewResponseDTO struct {
	WaitingTopUps   int64 `json:"waiting_topups" example:"3"`
	OpenWithdrawals int64 `json:"open_withdrawals" example:"2"`
	ConfirmedTopUps int64 `json:"confirmed_topups" example:"41"`
	Users           int64 `json:"users" example:"17"`
}

type SnapshotResponseDTO struct {
	TopUps      []TopUpResponseDTO      `json:"topups"`
	Withdrawals []WithdrawalResponseDTO `json:"withdrawals"`
}

// SetBalanceRequestDTO overwrites a balance. Version 0 skips the
// concurrent-modification check.
type SetBalanceRequestDTO struct {
	Balance int64 `json:"balance" example:"250000"`
	Version int64 `json:"version" example:"3"`
}
