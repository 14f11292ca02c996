package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/migration"
	"curvedex/internal/store"
	"curvedex/pkg/curve"
)

// CreateDexPoolRequest is the body of POST /dex-pool. Accounts and amounts
// follow the order of mints.
type CreateDexPoolRequest struct {
	ConfigID        uint      `json:"config_id" binding:"required"`
	Creator         string    `json:"creator" binding:"required"`
	Mints           [2]string `json:"mints"`
	CreatorAccounts [2]string `json:"creator_accounts"`
	InitAmounts     [2]uint64 `json:"init_amounts"`
	// OpenTime is unix seconds; zero opens immediately.
	OpenTime int64 `json:"open_time"`
}

// SwapRequest is the body of the quote and swap endpoints
type SwapRequest struct {
	Trader        string               `json:"trader"`
	Direction     curve.TradeDirection `json:"direction"`
	Mode          string               `json:"mode"`
	Amount        uint64               `json:"amount" binding:"required"`
	Limit         uint64               `json:"limit"`
	InputAccount  string               `json:"input_account"`
	OutputAccount string               `json:"output_account"`
}

func (r SwapRequest) toDex() (dex.SwapRequest, error) {
	mode := dex.BaseInput
	switch r.Mode {
	case "", dex.BaseInput.String():
	case dex.BaseOutput.String():
		mode = dex.BaseOutput
	default:
		return dex.SwapRequest{}, dex.ErrInvalidInput
	}
	return dex.SwapRequest{
		Direction:     r.Direction,
		Mode:          mode,
		Amount:        r.Amount,
		Limit:         r.Limit,
		InputAccount:  r.InputAccount,
		OutputAccount: r.OutputAccount,
	}, nil
}

// LaunchRequest is the body of POST /dex-pool/:id/launch
type LaunchRequest struct {
	Admin         string    `json:"admin" binding:"required"`
	FeeRecipients [2]string `json:"fee_recipients"`
}

// WithdrawFeesRequest is the body of POST /dex-pool/:id/withdraw-fees
type WithdrawFeesRequest struct {
	Recipients [2]string `json:"recipients"`
	// Omitted amounts withdraw everything owed on that side.
	Amount0Requested *uint64 `json:"amount_0_requested"`
	Amount1Requested *uint64 `json:"amount_1_requested"`
}

func (r WithdrawFeesRequest) requested() [2]uint64 {
	out := dex.WithdrawAll
	for i, amount := range [2]*uint64{r.Amount0Requested, r.Amount1Requested} {
		if amount != nil {
			out[i] = *amount
		}
	}
	return out
}

// CreateDexPool opens a pool and funds its vaults from the creator
func CreateDexPool(c *gin.Context) {
	var req CreateDexPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var open time.Time
	if req.OpenTime > 0 {
		open = time.Unix(req.OpenTime, 0).UTC()
	}
	pool, err := Engine.CreatePool(c.Request.Context(), engine.CreatePoolRequest{
		ConfigID:        req.ConfigID,
		Creator:         req.Creator,
		Mints:           req.Mints,
		CreatorAccounts: req.CreatorAccounts,
		InitAmounts:     req.InitAmounts,
		OpenTime:        open,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pool)
}

// ListDexPools supports phase, config_id and mint filters plus pagination
func ListDexPools(c *gin.Context) {
	filter := store.PoolFilter{Mint: c.Query("mint")}
	filter.Limit, filter.Offset = pagination(c)
	if p := c.Query("phase"); p != "" {
		phase, err := dex.ParsePhase(p)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Phase = &phase
	}
	if id := c.Query("config_id"); id != "" {
		n, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config_id"})
			return
		}
		filter.ConfigID = uint(n)
	}
	pools, err := Engine.Pools(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pools)
}

// GetDexPool returns a pool with balances, reserves and price
func GetDexPool(c *gin.Context) {
	view, err := Engine.Pool(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// bindSwap reads a swap body. A non-empty mode overrides the body's mode.
func bindSwap(c *gin.Context, mode string) (string, dex.SwapRequest, bool) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", dex.SwapRequest{}, false
	}
	if mode != "" {
		req.Mode = mode
	}
	swap, err := req.toDex()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid mode " + req.Mode})
		return "", dex.SwapRequest{}, false
	}
	return req.Trader, swap, true
}

// QuoteDexSwap prices a trade without executing it
func QuoteDexSwap(c *gin.Context) {
	_, req, ok := bindSwap(c, "")
	if !ok {
		return
	}
	q, err := Engine.Quote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ExecuteDexSwap trades against a pool in the mode named by the body
func ExecuteDexSwap(c *gin.Context) {
	executeSwap(c, "")
}

// SwapDexBaseInput sells an exact amount in
func SwapDexBaseInput(c *gin.Context) {
	executeSwap(c, dex.BaseInput.String())
}

// SwapDexBaseOutput buys an exact amount out
func SwapDexBaseOutput(c *gin.Context) {
	executeSwap(c, dex.BaseOutput.String())
}

func executeSwap(c *gin.Context, mode string) {
	trader, req, ok := bindSwap(c, mode)
	if !ok {
		return
	}
	if req.InputAccount == "" || req.OutputAccount == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input_account and output_account are required"})
		return
	}
	ev, err := Engine.Swap(c.Request.Context(), c.Param("id"), trader, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// ListDexSwaps returns the latest trades of a pool, newest first
func ListDexSwaps(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	swaps, err := Engine.Swaps(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, swaps)
}

// GetDexLaunchPlan previews the launch split
func GetDexLaunchPlan(c *gin.Context) {
	plan, err := Engine.LaunchPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// LaunchDexPool migrates a ready pool into the amm
func LaunchDexPool(c *gin.Context) {
	var req LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := Engine.Launch(c.Request.Context(), c.Param("id"), migration.LaunchRequest{
		Admin:         req.Admin,
		FeeRecipients: req.FeeRecipients,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// GetDexLaunch returns the launch record of a pool
func GetDexLaunch(c *gin.Context) {
	rec, err := Engine.LaunchRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// WithdrawDexFees pays out the protocol fees of a pool
func WithdrawDexFees(c *gin.Context) {
	var req WithdrawFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ev, err := Engine.WithdrawFees(c.Request.Context(), c.Param("id"), req.Recipients, req.requested())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// UpdateDexReserveBound moves the launch threshold of a trading pool
func UpdateDexReserveBound(c *gin.Context) {
	var bound dex.ReserveBound
	if err := c.ShouldBindJSON(&bound); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pool, err := Engine.UpdateReserveBound(c.Request.Context(), c.Param("id"), bound)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pool)
}
