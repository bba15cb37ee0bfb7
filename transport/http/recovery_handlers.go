package http

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/layer-3/warden/core"
	"github.com/layer-3/warden/service"
)

// RecoveryHandlers contains HTTP handlers for the recovery state machine
type RecoveryHandlers struct {
	recovery *service.Recovery
}

// NewRecoveryHandlers creates new recovery handlers
func NewRecoveryHandlers(recovery *service.Recovery) *RecoveryHandlers {
	return &RecoveryHandlers{recovery: recovery}
}

// intentRequest is the wire form of a recovery intent.
type intentRequest struct {
	Account            common.Address `json:"account"`
	ProposedController common.Address `json:"proposed_controller"`
	Counter            uint64         `json:"counter"`
	Expiry             uint64         `json:"expiry"`
	ChainID            uint64         `json:"chain_id"`
	Instance           common.Address `json:"instance"`
}

func (r intentRequest) toIntent() core.Intent {
	return core.Intent{
		Account:            r.Account,
		ProposedController: r.ProposedController,
		Counter:            r.Counter,
		Expiry:             r.Expiry,
		ChainID:            new(big.Int).SetUint64(r.ChainID),
		Instance:           r.Instance,
	}
}

// Initialize handles the one-time instance setup
func (h *RecoveryHandlers) Initialize(c *gin.Context) {
	var req struct {
		Account                common.Address  `json:"account"`
		Guardians              []core.Guardian `json:"guardians"`
		Threshold              uint8           `json:"threshold"`
		ChallengePeriodSeconds uint64          `json:"challenge_period_seconds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	policy := core.Policy{
		Guardians:       req.Guardians,
		Threshold:       req.Threshold,
		ChallengePeriod: time.Duration(req.ChallengePeriodSeconds) * time.Second,
	}
	if err := h.recovery.Initialize(c.Request.Context(), req.Account, policy); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Instance initialized"})
}

// Start handles the first guardian proof, opening a session
func (h *RecoveryHandlers) Start(c *gin.Context) {
	var req struct {
		Intent        intentRequest `json:"intent" binding:"required"`
		GuardianIndex uint8         `json:"guardian_index"`
		Proof         hexutil.Bytes `json:"proof" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.recovery.StartRecovery(c.Request.Context(), req.Intent.toIntent(), req.GuardianIndex, req.Proof); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Recovery session started"})
}

// SubmitProof handles additional guardian approvals
func (h *RecoveryHandlers) SubmitProof(c *gin.Context) {
	var req struct {
		GuardianIndex uint8         `json:"guardian_index"`
		Proof         hexutil.Bytes `json:"proof" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.recovery.SubmitProof(c.Request.Context(), req.GuardianIndex, req.Proof); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Proof accepted"})
}

// Execute finalizes an approved session once the challenge period elapsed
func (h *RecoveryHandlers) Execute(c *gin.Context) {
	if err := h.recovery.ExecuteRecovery(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recovery executed"})
}

// ClearExpired removes a session whose expiry has passed
func (h *RecoveryHandlers) ClearExpired(c *gin.Context) {
	if err := h.recovery.ClearExpiredRecovery(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expired session cleared"})
}

// Cancel vetoes the active session. The caller was authenticated as the
// account controller by the auth middleware.
func (h *RecoveryHandlers) Cancel(c *gin.Context) {
	caller, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Owner not found in context"})
		return
	}

	if err := h.recovery.CancelRecovery(c.Request.Context(), caller); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recovery cancelled"})
}

// UpdatePolicy replaces the policy wholesale
func (h *RecoveryHandlers) UpdatePolicy(c *gin.Context) {
	caller, ok := ownerFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Owner not found in context"})
		return
	}

	var req struct {
		Guardians              []core.Guardian `json:"guardians"`
		Threshold              uint8           `json:"threshold"`
		ChallengePeriodSeconds uint64          `json:"challenge_period_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	policy := core.Policy{
		Guardians:       req.Guardians,
		Threshold:       req.Threshold,
		ChallengePeriod: time.Duration(req.ChallengePeriodSeconds) * time.Second,
	}
	if err := h.recovery.UpdatePolicy(c.Request.Context(), caller, policy); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Policy updated"})
}

// Status returns the instance configuration and the derived session status
func (h *RecoveryHandlers) Status(c *gin.Context) {
	resp := gin.H{
		"instance":                 h.recovery.Instance(),
		"chain_id":                 h.recovery.ChainID().Uint64(),
		"initialized":              h.recovery.Initialized(),
		"account":                  h.recovery.Account(),
		"counter":                  h.recovery.Counter(),
		"threshold":                h.recovery.Threshold(),
		"challenge_period_seconds": uint64(h.recovery.ChallengePeriod() / time.Second),
		"guardian_count":           h.recovery.GuardianCount(),
		"status":                   h.recovery.Status(),
		"session_active":           h.recovery.SessionActive(),
	}
	if session := h.recovery.ActiveSession(); session != nil {
		resp["session"] = session
	}
	c.JSON(http.StatusOK, resp)
}

// Guardians returns the live guardian list
func (h *RecoveryHandlers) Guardians(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"guardians": h.recovery.Guardians()})
}

// Guardian returns one guardian with its approval flag
func (h *RecoveryHandlers) Guardian(c *gin.Context) {
	index, err := strconv.ParseUint(c.Param("index"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guardian index"})
		return
	}

	guardian, err := h.recovery.Guardian(uint8(index))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"guardian":     guardian,
		"has_approved": h.recovery.HasApproved(uint8(index)),
	})
}

func ownerFromContext(c *gin.Context) (common.Address, bool) {
	value, exists := c.Get(ownerAddressKey)
	if !exists {
		return common.Address{}, false
	}
	address, ok := value.(common.Address)
	return address, ok
}

// respondError maps state machine errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidIntent),
		errors.Is(err, core.ErrInvalidPolicy),
		errors.Is(err, core.ErrZeroAccount):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidProof),
		errors.Is(err, core.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, core.ErrGuardianNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrAlreadyInitialized),
		errors.Is(err, core.ErrRecoveryAlreadyActive),
		errors.Is(err, core.ErrGuardianAlreadyApproved),
		errors.Is(err, core.ErrIntentExpired),
		errors.Is(err, core.ErrThresholdNotMet),
		errors.Is(err, core.ErrChallengePeriodNotElapsed),
		errors.Is(err, core.ErrDeadlineNotReached),
		errors.Is(err, core.ErrRecoveryNotActive),
		errors.Is(err, core.ErrNotInitialized):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
