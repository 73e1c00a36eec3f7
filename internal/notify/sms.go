package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SMSChannel posts order events to an HTTP SMS gateway.
type SMSChannel struct {
	gatewayURL string
	client     *http.Client
}

// NewSMSChannel returns nil when no gateway is configured, disabling the channel.
func NewSMSChannel(gatewayURL string) *SMSChannel {
	if gatewayURL == "" {
		return nil
	}
	return &SMSChannel{
		gatewayURL: gatewayURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SMSChannel) Name() string { return "sms" }

func (c *SMSChannel) Notify(ctx context.Context, msg Message) error {
	if len(msg.Phones) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string]any{
		"to":      msg.Phones,
		"message": msg.Body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %s", resp.Status)
	}
	return nil
}
