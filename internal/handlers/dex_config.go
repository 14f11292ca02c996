package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"curvedex/internal/dex"
)

// DexConfigRequest is the body of POST /dex-config
type DexConfigRequest struct {
	Admin          string           `json:"admin" binding:"required"`
	SwapFeeRate    uint64           `json:"swap_fee_rate"`
	LaunchFeeRate  uint64           `json:"launch_fee_rate"`
	InitialReserve uint64           `json:"initial_reserve"`
	ReserveBound   dex.ReserveBound `json:"reserve_bound"`
	DisableCreate  bool             `json:"disable_create"`
}

// DexConfigUpdateRequest is the body of PUT /dex-config/:id
type DexConfigUpdateRequest struct {
	Admin string `json:"admin" binding:"required"`
	Field string `json:"field" binding:"required"`
	Value uint64 `json:"value"`
}

func configID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config id"})
		return 0, false
	}
	return uint(id), true
}

// CreateDexConfig stores a new config
func CreateDexConfig(c *gin.Context) {
	var req DexConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg, err := Engine.CreateConfig(c.Request.Context(), req.Admin, dex.Config{
		SwapFeeRate:    req.SwapFeeRate,
		LaunchFeeRate:  req.LaunchFeeRate,
		InitialReserve: req.InitialReserve,
		ReserveBound:   req.ReserveBound,
		DisableCreate:  req.DisableCreate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// ListDexConfigs returns every config
func ListDexConfigs(c *gin.Context) {
	cfgs, err := Engine.Configs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfgs)
}

// GetDexConfig returns one config
func GetDexConfig(c *gin.Context) {
	id, ok := configID(c)
	if !ok {
		return
	}
	cfg, err := Engine.Config(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// UpdateDexConfig changes one field of a config
func UpdateDexConfig(c *gin.Context) {
	id, ok := configID(c)
	if !ok {
		return
	}
	var req DexConfigUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	field, err := dex.ParseConfigUpdate(req.Field)
	if err != nil {
		respondError(c, err)
		return
	}
	cfg, err := Engine.UpdateConfig(c.Request.Context(), req.Admin, id, field, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
