package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadflow-backend/logger"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
	PhoneNumber    string
	Timeout        time.Duration
	DefaultRegion  string
}

// Twilio sends WhatsApp messages (and SMS when asked) through the Twilio
// Messages API.
type Twilio struct {
	api messageCreator
	cfg TwilioConfig
	log *logger.Logger
}

func NewTwilio(cfg TwilioConfig, log *logger.Logger) *Twilio {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Twilio{api: client.Api, cfg: cfg, log: log}
}

func (t *Twilio) Send(ctx context.Context, msg Message) Result {
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}

	to := NormalizeE164(msg.Recipient, t.cfg.DefaultRegion)
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(msg.Body)

	if msg.Channel == ChannelSMS {
		if t.cfg.PhoneNumber == "" {
			return Failed(errors.New("twilio sms sender number not configured"))
		}
		params.SetTo(to)
		params.SetFrom(t.cfg.PhoneNumber)
	} else {
		if t.cfg.WhatsAppNumber == "" {
			return Failed(errors.New("twilio whatsapp sender number not configured"))
		}
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + t.cfg.WhatsAppNumber)
	}

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		t.log.Error("twilio_send_failed", "to", to, "error", err)
		return Failed(fmt.Errorf("twilio: %w", err))
	}
	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		return Result{Success: false, Error: *resp.ErrorMessage}
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.log.Info("twilio_message_sent", "to", to, "sid", sid)
	return Delivered(sid)
}
