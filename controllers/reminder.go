// controllers/reminder.go
package controllers

import (
	"net/http"
	"strconv"

	"leadflow-backend/services"
	"leadflow-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReminderController struct {
	Reminders *services.ReminderService
}

// CreateReminderInput defines the expected JSON structure
type CreateReminderInput struct {
	LeadID          string  `json:"leadId" binding:"required,uuid"`
	ProductID       *string `json:"productId" binding:"omitempty,uuid"`
	StageID         *string `json:"stageId" binding:"omitempty,uuid"`
	DelayValue      int     `json:"delayValue" binding:"min=0"`
	DelayUnit       string  `json:"delayUnit" binding:"required,oneof=minutes hours days"`
	Mode            string  `json:"mode" binding:"omitempty,oneof=once recurring"`
	MessageTemplate string  `json:"messageTemplate" binding:"required,template_vars"`
	Instance        string  `json:"instance" binding:"omitempty,oneof=whatsapp sms"`
}

// SendAdHocInput is a manual send with no scheduled reminder behind it.
type SendAdHocInput struct {
	LeadID          string  `json:"leadId" binding:"required,uuid"`
	ProductID       *string `json:"productId" binding:"omitempty,uuid"`
	MessageTemplate string  `json:"messageTemplate" binding:"required,template_vars"`
	Instance        string  `json:"instance" binding:"omitempty,oneof=whatsapp sms"`
}

func (rc *ReminderController) CreateReminder(c *gin.Context) {
	var input CreateReminderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	reminder, err := rc.Reminders.Schedule(c.Request.Context(), services.ScheduleReminderInput{
		LeadID:          uuid.MustParse(input.LeadID),
		ProductID:       parseOptionalUUID(input.ProductID),
		StageID:         parseOptionalUUID(input.StageID),
		DelayValue:      input.DelayValue,
		DelayUnit:       input.DelayUnit,
		Mode:            input.Mode,
		MessageTemplate: input.MessageTemplate,
		Instance:        input.Instance,
	})
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reminder)
}

// GetReminders lists reminders ordered by due time, optionally by status.
func (rc *ReminderController) GetReminders(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", "pending", "sending", "sent", "failed":
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}

	reminders, err := rc.Reminders.List(c.Request.Context(), status, queryLimit(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminders)
}

func (rc *ReminderController) GetReminderLogs(c *gin.Context) {
	logs, err := rc.Reminders.Logs(c.Request.Context(), queryLimit(c))
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (rc *ReminderController) GetReminderStats(c *gin.Context) {
	stats, err := rc.Reminders.Stats(c.Request.Context())
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SendReminderNow sends a stored reminder immediately, whatever its due
// time. Only reminders already sent are refused.
func (rc *ReminderController) SendReminderNow(c *gin.Context) {
	reminderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid reminder ID format")
		return
	}

	outcome, err := rc.Reminders.SendNow(c.Request.Context(), services.SendNowRequest{ReminderID: &reminderID})
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (rc *ReminderController) SendAdHoc(c *gin.Context) {
	var input SendAdHocInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	outcome, err := rc.Reminders.SendNow(c.Request.Context(), services.SendNowRequest{
		AdHoc: &services.AdHocReminder{
			LeadID:          uuid.MustParse(input.LeadID),
			ProductID:       parseOptionalUUID(input.ProductID),
			MessageTemplate: input.MessageTemplate,
			Instance:        input.Instance,
		},
	})
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (rc *ReminderController) SendDue(c *gin.Context) {
	c.JSON(http.StatusOK, rc.Reminders.SendDue(c.Request.Context()))
}

func parseOptionalUUID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id := uuid.MustParse(*s)
	return &id
}

func queryLimit(c *gin.Context) int {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return limit
}
