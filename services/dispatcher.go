package services

import (
	"context"

	"leadflow-backend/logger"
	"leadflow-backend/models"
	"leadflow-backend/transport"

	"github.com/google/uuid"
)

type DispatchOutcome string

const (
	OutcomeSent            DispatchOutcome = "sent"
	OutcomeAlreadySent     DispatchOutcome = "already_sent"
	OutcomeLeadNotFound    DispatchOutcome = "lead_not_found"
	OutcomeNotApplicable   DispatchOutcome = "not_applicable"
	OutcomeTransportFailed DispatchOutcome = "transport_failed"
	OutcomeStorageError    DispatchOutcome = "storage_error"
)

// Dispatcher sends one event rule to one lead. It never returns an error:
// every failure is logged and left visible only through storage state.
type Dispatcher struct {
	leads     LeadStore
	tracker   *DeliveryTracker
	transport transport.Sender
	log       *logger.Logger
}

func NewDispatcher(leads LeadStore, tracker *DeliveryTracker, sender transport.Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{leads: leads, tracker: tracker, transport: sender, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, rule models.WhatsAppEvent, leadID uuid.UUID) DispatchOutcome {
	log := d.log.WithContext(ctx).With("event_id", rule.ID, "lead_id", leadID, "trigger", rule.TriggerType)

	lead, err := d.leads.GetLeadView(ctx, leadID)
	if err != nil {
		log.DatabaseError("load lead", err)
		return OutcomeStorageError
	}
	if lead == nil {
		log.Warn("dispatch_lead_not_found")
		return OutcomeLeadNotFound
	}
	if !appliesTo(rule, lead) {
		log.Debug("dispatch_rule_not_applicable")
		return OutcomeNotApplicable
	}

	sent, err := d.tracker.WasSent(ctx, leadID, rule.ID)
	if err != nil {
		log.DatabaseError("check delivery", err)
		return OutcomeStorageError
	}
	if sent {
		log.Debug("dispatch_already_sent")
		return OutcomeAlreadySent
	}

	// Names are read now, so a product changed after stage entry renders
	// with the current product.
	message := ResolveTemplate(rule.MessageTemplate, TemplateContext{
		LeadName:    lead.Name,
		LeadPhone:   lead.Phone,
		ProductName: lead.ProductName,
		StageName:   lead.StageName,
	})

	claimed, err := d.tracker.Claim(ctx, leadID, rule.ID)
	if err != nil {
		log.DatabaseError("record delivery", err)
		return OutcomeStorageError
	}
	if !claimed {
		return OutcomeAlreadySent
	}

	// The phone goes out as stored; the adapter owns normalisation.
	result := d.transport.Send(ctx, transport.Message{Recipient: lead.Phone, Body: message})
	if !result.Success {
		log.Error("dispatch_transport_failed", "error", result.Error)
		if err := d.tracker.Release(ctx, leadID, rule.ID); err != nil {
			// The stranded row blocks this lead and event until someone deletes it.
			log.Error("delivery_release_failed",
				"error", err.Error(),
				"remedy", "delete the sent_whatsapp_messages row for lead_id and event_id",
			)
		}
		return OutcomeTransportFailed
	}

	log.Info("dispatch_sent", "provider_message_id", result.ProviderMessageID)
	return OutcomeSent
}
