package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadflow-backend/logger"
)

const gowaSuccessCode = "SUCCESS"

type GowaConfig struct {
	URL           string
	Key           string
	DeviceID      string
	Timeout       time.Duration
	DefaultRegion string
}

// Gowa talks to a go-whatsapp-web-multidevice gateway.
type Gowa struct {
	baseURL       string
	apiKey        string
	deviceID      string
	defaultRegion string
	http          *http.Client
	log           *logger.Logger
}

type gowaRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type gowaResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Results struct {
		MessageID string `json:"message_id"`
	} `json:"results"`
}

func NewGowa(cfg GowaConfig, log *logger.Logger) *Gowa {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gowa{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		apiKey:        cfg.Key,
		deviceID:      cfg.DeviceID,
		defaultRegion: cfg.DefaultRegion,
		http:          &http.Client{Timeout: timeout},
		log:           log,
	}
}

func (g *Gowa) Send(ctx context.Context, msg Message) Result {
	normalized := strings.TrimPrefix(NormalizeE164(msg.Recipient, g.defaultRegion), "+")

	body, err := json.Marshal(gowaRequest{Phone: normalized, Message: msg.Body})
	if err != nil {
		return Failed(fmt.Errorf("marshal whatsapp payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/send/message", bytes.NewBuffer(body))
	if err != nil {
		return Failed(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", formatAuthHeader(g.apiKey))
	}
	if g.deviceID != "" {
		req.Header.Set("X-Device-Id", g.deviceID)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return Failed(fmt.Errorf("whatsapp request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return Failed(fmt.Errorf("whatsapp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var parsed gowaResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Failed(fmt.Errorf("decode whatsapp response: %w", err))
	}
	if !strings.EqualFold(parsed.Code, gowaSuccessCode) {
		return Failed(fmt.Errorf("whatsapp service rejected message: %s %s", parsed.Code, parsed.Message))
	}

	g.log.Info("whatsapp_sent_via_gowa", "phone", normalized, "message_id", parsed.Results.MessageID)
	return Delivered(parsed.Results.MessageID)
}

func formatAuthHeader(apiKey string) string {
	if strings.HasPrefix(strings.ToLower(apiKey), "basic ") {
		return apiKey
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(apiKey))
}
