package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/ledger"
	"curvedex/internal/store"
)

var (
	// Engine serves every pool endpoint. It is set once at startup.
	Engine *engine.Service
	// Mints resolves on-chain mints for /mint/:address/sync. Nil disables syncing.
	Mints engine.MintSource
)

// Use installs the engine and mint source the handlers run against.
func Use(svc *engine.Service, mints engine.MintSource) {
	Engine = svc
	Mints = mints
}

// statusOf maps an engine error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ledger.ErrAccountNotFound), errors.Is(err, ledger.ErrUnknownMint):
		return http.StatusNotFound
	case errors.Is(err, store.ErrPoolExists):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	}
	switch dex.Kind(err) {
	case dex.KindArithmetic:
		return http.StatusUnprocessableEntity
	case dex.KindPrecondition:
		if errors.Is(err, dex.ErrInvalidInput) || errors.Is(err, dex.ErrInvalidFeeRate) {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case dex.KindSlippage:
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusOf(err), gin.H{
		"error": err.Error(),
		"kind":  dex.Kind(err).String(),
	})
}

// pagination reads page and page_size, page_size capped at 100.
func pagination(c *gin.Context) (limit, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}
