package restapi

import (
	"net/http"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/domain/entity"
	wire "honeyfarmers/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// APIResponse is the envelope of every API response.
type APIResponse struct {
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type switchNetworkRequest struct {
	Network entity.NetworkKey `json:"network" binding:"required"`
}

type hiveRequest struct {
	HiveID wire.FlexString `json:"hiveId" binding:"required"`
}

type beeRequest struct {
	BeeID wire.FlexString `json:"beeId" binding:"required"`
}

type unstakeRequest struct {
	BeeID  wire.FlexString `json:"beeId" binding:"required"`
	HiveID wire.FlexString `json:"hiveId" binding:"required"`
}

type stakeRequest struct {
	BeeIDs []wire.FlexString `json:"beeIds" binding:"required"`
	HiveID wire.FlexString   `json:"hiveId" binding:"required"`
}

type depositRequest struct {
	Symbol string          `json:"symbol" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type withdrawRequest struct {
	Huny decimal.Decimal `json:"huny"`
	Pln  decimal.Decimal `json:"pln"`
	Bwax decimal.Decimal `json:"bwax"`
	Rj   decimal.Decimal `json:"rj"`
}

// GameHandler serves the game client over HTTP.
type GameHandler struct {
	client port.GameClient
}

// NewGameHandler creates a handler for client.
func NewGameHandler(client port.GameClient) *GameHandler {
	return &GameHandler{client: client}
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse{Data: data, RequestID: c.GetString(requestIDKey)})
}

// Networks lists the supported networks.
func (h *GameHandler) Networks(c *gin.Context) {
	respond(c, h.client.Networks())
}

// Session reports the reconciliation state.
func (h *GameHandler) Session(c *gin.Context) {
	respond(c, h.client.Status())
}

// SwitchNetwork changes the active network and reconciles against it.
func (h *GameHandler) SwitchNetwork(c *gin.Context) {
	var req switchNetworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	if err := h.client.SwitchNetwork(c.Request.Context(), req.Network); err != nil {
		abortWithError(c, err, false)
		return
	}
	respond(c, h.client.Status())
}

// Login starts a wallet session.
func (h *GameHandler) Login(c *gin.Context) {
	status, err := h.client.Login(c.Request.Context())
	if err != nil {
		abortWithError(c, err, true)
		return
	}
	respond(c, status)
}

// Logout ends the wallet session.
func (h *GameHandler) Logout(c *gin.Context) {
	if err := h.client.Logout(c.Request.Context()); err != nil {
		abortWithError(c, err, false)
		return
	}
	respond(c, h.client.Status())
}

// State returns the last game-state snapshot.
func (h *GameHandler) State(c *gin.Context) {
	state, ok := h.client.Snapshot()
	if !ok {
		if h.client.Status().Actor == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, APIResponse{Error: "not authenticated", RequestID: c.GetString(requestIDKey)})
			return
		}
		c.AbortWithStatusJSON(http.StatusNotFound, APIResponse{Error: "game state not loaded yet", RequestID: c.GetString(requestIDKey)})
		return
	}
	respond(c, state)
}

// Refresh runs the game-state pipeline.
func (h *GameHandler) Refresh(c *gin.Context) {
	state, err := h.client.Refresh(c.Request.Context())
	if err != nil {
		abortWithError(c, err, false)
		return
	}
	respond(c, state)
}

// WalletBalances returns the actor's token balances.
func (h *GameHandler) WalletBalances(c *gin.Context) {
	balances, err := h.client.WalletBalances(c.Request.Context())
	if err != nil {
		abortWithError(c, err, false)
		return
	}
	respond(c, balances)
}

// Claim collects a hive's production.
func (h *GameHandler) Claim(c *gin.Context) {
	var req hiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.Claim(c.Request.Context(), entity.AssetID(req.HiveID))
	})
}

// FeedBee feeds a bee.
func (h *GameHandler) FeedBee(c *gin.Context) {
	var req beeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.FeedBee(c.Request.Context(), entity.AssetID(req.BeeID))
	})
}

// UpgradeHive upgrades a hive.
func (h *GameHandler) UpgradeHive(c *gin.Context) {
	var req hiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.UpgradeHive(c.Request.Context(), entity.AssetID(req.HiveID))
	})
}

// Unstake removes a bee from a hive.
func (h *GameHandler) Unstake(c *gin.Context) {
	var req unstakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.Unstake(c.Request.Context(), entity.AssetID(req.BeeID), entity.AssetID(req.HiveID))
	})
}

// Stake places bees into a hive.
func (h *GameHandler) Stake(c *gin.Context) {
	var req stakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	ids := make([]entity.AssetID, 0, len(req.BeeIDs))
	for _, id := range req.BeeIDs {
		ids = append(ids, entity.AssetID(id))
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.Stake(c.Request.Context(), ids, entity.AssetID(req.HiveID))
	})
}

// Deposit moves tokens from the wallet into the game.
func (h *GameHandler) Deposit(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.Deposit(c.Request.Context(), req.Symbol, req.Amount)
	})
}

// Withdraw moves tokens from the game to the wallet.
func (h *GameHandler) Withdraw(c *gin.Context) {
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortBadRequest(c, err.Error())
		return
	}
	h.action(c, func() (*port.ActionResult, error) {
		return h.client.Withdraw(c.Request.Context(), port.WithdrawRequest{
			Huny: req.Huny,
			Pln:  req.Pln,
			Bwax: req.Bwax,
			Rj:   req.Rj,
		})
	})
}

func (h *GameHandler) action(c *gin.Context, run func() (*port.ActionResult, error)) {
	result, err := run()
	if err != nil {
		abortWithError(c, err, true)
		return
	}
	respond(c, result)
}
