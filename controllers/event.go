package controllers

import (
	"net/http"

	"leadflow-backend/models"
	"leadflow-backend/services"
	"leadflow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type EventController struct {
	Engine *services.Engine
}

type CreateEventInput struct {
	TriggerType     string  `json:"triggerType" binding:"required,oneof=stage_entry stage_timeout"`
	StageID         string  `json:"stageId" binding:"required,uuid"`
	ProductID       *string `json:"productId" binding:"omitempty,uuid"`
	TimeoutMinutes  *int    `json:"timeoutMinutes" binding:"omitempty,min=1"`
	MessageTemplate string  `json:"messageTemplate" binding:"required,template_vars"`
	IsActive        *bool   `json:"isActive"`
}

type ValidateTemplateInput struct {
	Template string `json:"template" binding:"required"`
}

func (ec *EventController) CreateEvent(c *gin.Context) {
	var input CreateEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	event := models.WhatsAppEvent{
		TriggerType:     input.TriggerType,
		StageID:         uuid.MustParse(input.StageID),
		TimeoutMinutes:  input.TimeoutMinutes,
		MessageTemplate: input.MessageTemplate,
		IsActive:        true,
	}
	if input.ProductID != nil {
		productID := uuid.MustParse(*input.ProductID)
		event.ProductID = &productID
	}
	if input.IsActive != nil {
		event.IsActive = *input.IsActive
	}

	if err := ec.Engine.CreateRule(c.Request.Context(), &event); err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (ec *EventController) GetEvents(c *gin.Context) {
	events, err := ec.Engine.ListRules(c.Request.Context())
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ValidateTemplate lets the rule editor check a template before saving it.
func (ec *EventController) ValidateTemplate(c *gin.Context) {
	var input ValidateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, services.ValidateTemplate(input.Template))
}
