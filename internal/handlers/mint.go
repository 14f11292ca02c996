package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"curvedex/internal/ledger"
)

// MintToRequest is the body of POST /mint/:address/mint-to
type MintToRequest struct {
	Account string `json:"account" binding:"required"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount" binding:"required"`
}

// RegisterMint adds or replaces a mint in the ledger
func RegisterMint(c *gin.Context) {
	var spec ledger.MintSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := Engine.RegisterMint(c.Request.Context(), spec); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

// SyncMint loads a mint from chain and registers it
func SyncMint(c *gin.Context) {
	if Mints == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "mint sync is not configured"})
		return
	}
	spec, err := Engine.SyncMint(c.Request.Context(), Mints, c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spec)
}

// MintTo credits freshly issued tokens to an account
func MintTo(c *gin.Context) {
	var req MintToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	owner := req.Owner
	if owner == "" {
		owner = req.Account
	}
	if err := Engine.MintTo(c.Request.Context(), req.Account, owner, c.Param("address"), req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": req.Account, "amount": req.Amount})
}

// ListTokenAccounts returns ledger accounts, optionally of one mint
func ListTokenAccounts(c *gin.Context) {
	accounts, err := Engine.Accounts(c.Request.Context(), c.Query("mint"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// GetTokenBalance returns the balance of one account
func GetTokenBalance(c *gin.Context) {
	address := c.Param("address")
	bal, err := Engine.Balance(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "balance": bal})
}
