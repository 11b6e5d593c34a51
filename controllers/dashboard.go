package controllers

import (
	"net/http"

	"leadflow-backend/models"
	"leadflow-backend/services"
	"leadflow-backend/utils"

	"github.com/gin-gonic/gin"
)

const recentLogCount = 5

type DashboardOverview struct {
	Reminders     *services.ReminderStats `json:"reminders"`
	ActiveEntry   int                     `json:"activeEntryEvents"`
	ActiveTimeout int                     `json:"activeTimeoutEvents"`
	RecentLogs    []RecentSend            `json:"recentSends"`
}

type RecentSend struct {
	LeadID  string `json:"leadId"`
	Status  string `json:"status"`
	Preview string `json:"preview"`
	When    string `json:"when"` // e.g. "Today 14:05", "2024-03-01 09:00"
}

type DashboardController struct {
	Engine *services.Engine
}

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := dc.Engine.Reminders.Stats(ctx)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	rules, err := dc.Engine.ListRules(ctx)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	logs, err := dc.Engine.Reminders.Logs(ctx, recentLogCount)
	if err != nil {
		utils.RespondWithAppError(c, err)
		return
	}

	overview := DashboardOverview{Reminders: stats, RecentLogs: []RecentSend{}}
	for _, r := range rules {
		if !r.IsActive {
			continue
		}
		if r.TriggerType == models.TriggerStageEntry {
			overview.ActiveEntry++
		} else {
			overview.ActiveTimeout++
		}
	}

	// Same day boundaries as sentToday.
	now := dc.Engine.Now().In(dc.Engine.Reminders.Location())
	for _, l := range logs {
		at := l.CreatedAt
		if l.SentAt != nil {
			at = *l.SentAt
		}
		overview.RecentLogs = append(overview.RecentLogs, RecentSend{
			LeadID:  l.LeadID.String(),
			Status:  l.Status,
			Preview: l.MessagePreview,
			When:    utils.FormatRelativeDay(at, now),
		})
	}

	c.JSON(http.StatusOK, overview)
}
