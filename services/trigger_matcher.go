package services

import (
	"context"

	"leadflow-backend/models"

	"github.com/google/uuid"
)

type TriggerMatcher struct {
	rules RuleStore
}

func NewTriggerMatcher(rules RuleStore) *TriggerMatcher {
	return &TriggerMatcher{rules: rules}
}

// MatchStageEntry returns the active stage_entry rules targeting stageID.
func (m *TriggerMatcher) MatchStageEntry(ctx context.Context, stageID uuid.UUID) ([]models.WhatsAppEvent, error) {
	return m.rules.ListActiveRules(ctx, models.TriggerStageEntry, &stageID)
}

// MatchTimeout returns the active stage_timeout rules on stageID whose
// threshold is exactly minutes. There is no nearest match.
func (m *TriggerMatcher) MatchTimeout(ctx context.Context, stageID uuid.UUID, minutes int) ([]models.WhatsAppEvent, error) {
	rules, err := m.rules.ListActiveRules(ctx, models.TriggerStageTimeout, &stageID)
	if err != nil {
		return nil, err
	}

	matched := make([]models.WhatsAppEvent, 0, len(rules))
	for _, rule := range rules {
		if rule.TimeoutMinutes != nil && *rule.TimeoutMinutes == minutes {
			matched = append(matched, rule)
		}
	}
	return matched, nil
}

// ActiveTimeoutRules returns every active stage_timeout rule.
func (m *TriggerMatcher) ActiveTimeoutRules(ctx context.Context) ([]models.WhatsAppEvent, error) {
	return m.rules.ListActiveRules(ctx, models.TriggerStageTimeout, nil)
}

// appliesTo reports whether a product scoped rule covers the lead.
func appliesTo(rule models.WhatsAppEvent, lead *models.LeadView) bool {
	if rule.ProductID == nil {
		return true
	}
	return lead.ProductID != nil && *lead.ProductID == *rule.ProductID
}
