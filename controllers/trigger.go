package controllers

import (
	"net/http"

	"leadflow-backend/services"
	"leadflow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TriggerController exposes the engine entry points to the CRM, which calls
// them after it has changed a lead itself.
type TriggerController struct {
	Engine *services.Engine
}

type StageEntryInput struct {
	LeadID  string `json:"leadId" binding:"required,uuid"`
	StageID string `json:"stageId" binding:"required,uuid"`
}

func (tc *TriggerController) StageEntry(c *gin.Context) {
	var input StageEntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	summary := tc.Engine.OnStageEntry(c.Request.Context(), uuid.MustParse(input.LeadID), uuid.MustParse(input.StageID))
	c.JSON(http.StatusOK, summary)
}

type StageTimeoutInput struct {
	LeadID  string `json:"leadId" binding:"required,uuid"`
	StageID string `json:"stageId" binding:"required,uuid"`
	Minutes int    `json:"minutes" binding:"required,min=1"`
}

// StageTimeout is for CRMs that keep their own per-lead timers. Only rules
// whose threshold equals minutes fire.
func (tc *TriggerController) StageTimeout(c *gin.Context) {
	var input StageTimeoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	summary := tc.Engine.OnStageTimeout(c.Request.Context(), uuid.MustParse(input.LeadID), uuid.MustParse(input.StageID), input.Minutes)
	c.JSON(http.StatusOK, summary)
}

func (tc *TriggerController) CheckTimeouts(c *gin.Context) {
	c.JSON(http.StatusOK, tc.Engine.OnTimeoutScanTick(c.Request.Context()))
}
