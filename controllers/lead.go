package controllers

import (
	"net/http"

	"leadflow-backend/services"
	"leadflow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LeadController struct {
	Engine *services.Engine
}

type ChangeStageInput struct {
	StageID string `json:"stageId" binding:"required,uuid"`
}

// ChangeStage moves a lead to another pipeline stage and fires that stage's
// entry events.
func (lc *LeadController) ChangeStage(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid lead ID format")
		return
	}

	var input ChangeStageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	summary, err := lc.Engine.ChangeStage(c.Request.Context(), leadID, uuid.MustParse(input.StageID))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
