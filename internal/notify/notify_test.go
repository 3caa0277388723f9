package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/arcnetlabs/vault-client/internal/config"
	"github.com/arcnetlabs/vault-client/internal/models"
)

type recordingNotifier struct {
	statuses []Status
}

func (r *recordingNotifier) Notify(status Status) {
	r.statuses = append(r.statuses, status)
}

func TestManagerSingleSlotPerKind(t *testing.T) {
	recorder := &recordingNotifier{}
	manager := NewManager(recorder)

	manager.Progress(models.OpDeposit, "Approving USDC…")
	manager.Progress(models.OpDeposit, "Depositing funds…")
	manager.Success(models.OpDeposit, "Funds deposited!")

	status, ok := manager.Current(models.OpDeposit)
	if !ok {
		t.Fatal("expected a current status")
	}
	if !status.Terminal || !status.Succeeded {
		t.Errorf("expected terminal success, got %+v", status)
	}
	if status.Message != "Funds deposited!" {
		t.Errorf("message = %q", status.Message)
	}

	// Every update reached the notifier, but only one slot remains current.
	if len(recorder.statuses) != 3 {
		t.Errorf("notifier saw %d updates, want 3", len(recorder.statuses))
	}
	if len(manager.Snapshot()) != 1 {
		t.Errorf("snapshot has %d entries, want 1", len(manager.Snapshot()))
	}
}

func TestManagerKindsAreIndependent(t *testing.T) {
	manager := NewManager()

	manager.Success(models.OpMint, "10,000 Test USDC minted to your wallet!")
	manager.Failure(models.OpDeposit, "Insufficient funds for transaction", "INSUFFICIENT_FUNDS")

	mint, _ := manager.Current(models.OpMint)
	if !mint.Succeeded {
		t.Error("mint status lost")
	}

	deposit, _ := manager.Current(models.OpDeposit)
	if deposit.Succeeded || deposit.ErrorCode != "INSUFFICIENT_FUNDS" {
		t.Errorf("deposit status = %+v", deposit)
	}

	if len(manager.Snapshot()) != 2 {
		t.Errorf("snapshot has %d entries, want 2", len(manager.Snapshot()))
	}
}

func TestWebhookNotifier(t *testing.T) {
	var received []WebhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		received = append(received, payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(config.NotifyConfig{
		EnableWebhook:  true,
		WebhookURL:     srv.URL,
		WebhookTimeout: 2 * time.Second,
	})

	notifier.Notify(Status{Kind: models.OpDeposit, Message: "Approving USDC…"})
	notifier.Notify(Status{Kind: models.OpDeposit, Message: "Funds deposited!", Terminal: true, Succeeded: true})

	if len(received) != 1 {
		t.Fatalf("received %d deliveries, want 1 (terminal only)", len(received))
	}
	if received[0].Source != "vault-client" {
		t.Errorf("source = %q", received[0].Source)
	}
	if !received[0].Status.Terminal {
		t.Error("expected terminal status in payload")
	}
}
