// Package transport holds the outbound messaging adapters.
package transport

import "context"

const (
	ChannelWhatsApp = "whatsapp"
	ChannelSMS      = "sms"
)

type Message struct {
	Recipient string
	Body      string
	Channel   string
}

// Result reports the outcome of a single send. Ordinary delivery failures
// (busy line, invalid number) come back as Success=false, never as a panic.
type Result struct {
	Success           bool
	ProviderMessageID string
	Error             string
}

type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

func Failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

func Delivered(providerID string) Result {
	return Result{Success: true, ProviderMessageID: providerID}
}
