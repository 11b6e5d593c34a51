package transport

import (
	"context"

	"leadflow-backend/logger"

	"github.com/google/uuid"
)

// DryRun logs messages instead of sending them.
type DryRun struct {
	log *logger.Logger
}

func NewDryRun(log *logger.Logger) *DryRun {
	return &DryRun{log: log}
}

func (d *DryRun) Send(ctx context.Context, msg Message) Result {
	id := "dryrun-" + uuid.NewString()
	d.log.WithContext(ctx).Info("dryrun_message",
		"recipient", msg.Recipient,
		"channel", msg.Channel,
		"body", msg.Body,
		"message_id", id)
	return Delivered(id)
}
