package notify

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/pkg/utils"
)

// WebhookNotifier POSTs terminal operation outcomes to a configured URL.
// Progress updates are not forwarded.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// WebhookPayload is the JSON body sent for each terminal status.
type WebhookPayload struct {
	Source    string    `json:"source"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewWebhookNotifier creates a webhook notifier from config.
func NewWebhookNotifier(cfg config.NotifyConfig) *WebhookNotifier {
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		logger: utils.GetLogger(),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Notify forwards terminal statuses; delivery failures are logged, not
// surfaced, since notification is best-effort.
func (n *WebhookNotifier) Notify(status Status) {
	if !status.Terminal || n.url == "" {
		return
	}

	payload := WebhookPayload{
		Source:    "vault-client",
		Status:    status,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.WithError(err).Warn("Failed to encode webhook payload")
		return
	}

	resp, err := n.httpClient.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		n.logger.WithError(err).Warn("Webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.WithField("status_code", resp.StatusCode).Warn("Webhook rejected")
	}
}
