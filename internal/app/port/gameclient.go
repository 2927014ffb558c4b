package port

import (
	"context"

	"honeyfarmers/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// SessionStatus describes the reconciliation state exposed to the UI.
type SessionStatus struct {
	State      entity.ReconcileState `json:"state"`
	Network    entity.NetworkKey     `json:"network"`
	ChainID    string                `json:"chainId"`
	Actor      string                `json:"actor,omitempty"`
	Permission string                `json:"permission,omitempty"`
	Endpoint   string                `json:"endpoint,omitempty"`
}

// ActionResult is returned by every mutating action.
type ActionResult struct {
	RequestID     string           `json:"requestId"`
	TransactionID string           `json:"transactionId"`
	Earnings      []entity.Earning `json:"earnings,omitempty"`
	// RefreshError is set when the action succeeded but the follow-up refresh did not.
	RefreshError string `json:"refreshError,omitempty"`
}

// WithdrawRequest carries the amounts of a withdraw, all in token units.
type WithdrawRequest struct {
	Huny decimal.Decimal
	Pln  decimal.Decimal
	Bwax decimal.Decimal
	Rj   decimal.Decimal
}

// GameClient is the application-state object driven by the REST API.
type GameClient interface {
	Start(ctx context.Context)
	Status() SessionStatus
	Networks() []entity.NetworkProfile
	SwitchNetwork(ctx context.Context, key entity.NetworkKey) error
	Login(ctx context.Context) (SessionStatus, error)
	Logout(ctx context.Context) error

	Snapshot() (*entity.GameState, bool)
	Refresh(ctx context.Context) (*entity.GameState, error)
	WalletBalances(ctx context.Context) ([]entity.WalletBalance, error)

	Claim(ctx context.Context, hiveID entity.AssetID) (*ActionResult, error)
	FeedBee(ctx context.Context, beeID entity.AssetID) (*ActionResult, error)
	UpgradeHive(ctx context.Context, hiveID entity.AssetID) (*ActionResult, error)
	Unstake(ctx context.Context, beeID, hiveID entity.AssetID) (*ActionResult, error)
	Stake(ctx context.Context, beeIDs []entity.AssetID, hiveID entity.AssetID) (*ActionResult, error)
	Deposit(ctx context.Context, symbol string, amount decimal.Decimal) (*ActionResult, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*ActionResult, error)
}
