package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"leadflow-backend/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"national", "(11) 99999-0000", "+5511999990000"},
		{"with country code digits", "5511999990000", "+5511999990000"},
		{"already e164", "+5511999990000", "+5511999990000"},
		{"garbage", " abc ", "abc"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeE164(tt.input, "BR"))
		})
	}
}

func TestRegionForCountryCode(t *testing.T) {
	assert.Equal(t, "BR", RegionForCountryCode("55"))
	assert.Equal(t, "ZZ", RegionForCountryCode("x1"))
}

func TestGowaSend(t *testing.T) {
	var got gowaRequest
	var auth, device string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/message", r.URL.Path)
		auth = r.Header.Get("Authorization")
		device = r.Header.Get("X-Device-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"code":"SUCCESS","results":{"message_id":"wamid-1"}}`))
	}))
	defer server.Close()

	g := NewGowa(GowaConfig{URL: server.URL + "/", Key: "user:pass", DeviceID: "dev-1", DefaultRegion: "BR"}, logger.Nop())
	res := g.Send(context.Background(), Message{Recipient: "5511999990000", Body: "Olá"})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "wamid-1", res.ProviderMessageID)
	assert.Equal(t, "5511999990000", got.Phone)
	assert.Equal(t, "Olá", got.Message)
	assert.Equal(t, "Basic dXNlcjpwYXNz", auth)
	assert.Equal(t, "dev-1", device)
}

func TestGowaSendReportsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	g := NewGowa(GowaConfig{URL: server.URL}, logger.Nop())
	res := g.Send(context.Background(), Message{Recipient: "+5511999990000", Body: "hi"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "503")
	assert.Contains(t, res.Error, "device offline")
}

func TestGowaSendRejectsUnsuccessfulBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"error code", `{"code":"INTERNAL_SERVER_ERROR","message":"not on whatsapp"}`, "not on whatsapp"},
		{"missing code", `{"results":{"message_id":"wamid-1"}}`, "rejected"},
		{"not json", `<html>proxy error</html>`, "decode whatsapp response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			g := NewGowa(GowaConfig{URL: server.URL}, logger.Nop())
			res := g.Send(context.Background(), Message{Recipient: "+5511999990000", Body: "hi"})

			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.wantErr)
		})
	}
}

func TestFormatAuthHeaderKeepsBasicPrefix(t *testing.T) {
	assert.Equal(t, "Basic abc", formatAuthHeader("Basic abc"))
}

type fakeTwilio struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSendWhatsApp(t *testing.T) {
	api := &fakeTwilio{}
	tw := &Twilio{api: api, cfg: TwilioConfig{WhatsAppNumber: "+14155238886", DefaultRegion: "BR"}, log: logger.Nop()}

	res := tw.Send(context.Background(), Message{Recipient: "5511999990000", Body: "hello", Channel: ChannelWhatsApp})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "SM123", res.ProviderMessageID)
	assert.Equal(t, "whatsapp:+5511999990000", *api.params.To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params.From)
	assert.Equal(t, "hello", *api.params.Body)
}

func TestTwilioSendSMS(t *testing.T) {
	api := &fakeTwilio{}
	tw := &Twilio{api: api, cfg: TwilioConfig{PhoneNumber: "+15005550006", DefaultRegion: "BR"}, log: logger.Nop()}

	res := tw.Send(context.Background(), Message{Recipient: "+5511999990000", Body: "hello", Channel: ChannelSMS})

	require.True(t, res.Success)
	assert.Equal(t, "+5511999990000", *api.params.To)
	assert.Equal(t, "+15005550006", *api.params.From)
}

func TestTwilioSendFailure(t *testing.T) {
	api := &fakeTwilio{err: errors.New("invalid number")}
	tw := &Twilio{api: api, cfg: TwilioConfig{WhatsAppNumber: "+14155238886"}, log: logger.Nop()}

	res := tw.Send(context.Background(), Message{Recipient: "123", Body: "hello"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid number")
}

func TestTwilioRequiresSender(t *testing.T) {
	tw := &Twilio{api: &fakeTwilio{}, log: logger.Nop()}
	res := tw.Send(context.Background(), Message{Recipient: "123", Body: "hello"})
	assert.False(t, res.Success)
}

type countingSender struct{ calls atomic.Int32 }

func (c *countingSender) Send(context.Context, Message) Result {
	c.calls.Add(1)
	return Delivered("ok")
}

func TestLimitedPassesThrough(t *testing.T) {
	next := &countingSender{}
	s := NewLimited(next, 100)

	for i := 0; i < 3; i++ {
		assert.True(t, s.Send(context.Background(), Message{}).Success)
	}
	assert.Equal(t, int32(3), next.calls.Load())
}

func TestLimitedHonoursContext(t *testing.T) {
	next := &countingSender{}
	s := NewLimited(next, 0.001)

	require.True(t, s.Send(context.Background(), Message{}).Success)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res := s.Send(ctx, Message{})

	assert.False(t, res.Success)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestNewLimitedWithoutRateReturnsNext(t *testing.T) {
	next := &countingSender{}
	assert.Same(t, next, NewLimited(next, 0))
}

func TestDryRunAlwaysDelivers(t *testing.T) {
	res := NewDryRun(logger.Nop()).Send(context.Background(), Message{Recipient: "1", Body: "x"})
	assert.True(t, res.Success)
	assert.Contains(t, res.ProviderMessageID, "dryrun-")
}
