package orchestrator

import (
	"errors"
	"strings"
	"testing"

	"github.com/arcnetlabs/vault-client/pkg/utils"
)

func TestClassifyRemoteError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  string
		wantInMsg string
	}{
		{
			name:      "user rejection",
			err:       errors.New("MetaMask Tx Signature: User rejected the request"),
			wantCode:  utils.ErrCodeUserRejected,
			wantInMsg: "rejected by user",
		},
		{
			name:      "user denied variant",
			err:       errors.New("user denied transaction signature"),
			wantCode:  utils.ErrCodeUserRejected,
			wantInMsg: "rejected by user",
		},
		{
			name:      "insufficient funds",
			err:       errors.New("err: insufficient funds for gas * price + value"),
			wantCode:  utils.ErrCodeInsufficientFunds,
			wantInMsg: "Insufficient funds",
		},
		{
			name:      "quoted revert reason",
			err:       errors.New(`execution reverted with reason="Milestone not approved"`),
			wantCode:  utils.ErrCodeRemoteFailure,
			wantInMsg: "Milestone not approved",
		},
		{
			name:      "vault prefix reason",
			err:       errors.New("execution reverted: MilestoneVault: milestone already paid"),
			wantCode:  utils.ErrCodeRemoteFailure,
			wantInMsg: "milestone already paid",
		},
		{
			name:      "factory prefix reason",
			err:       errors.New("execution reverted: VaultFactory: name already taken"),
			wantCode:  utils.ErrCodeRemoteFailure,
			wantInMsg: "name already taken",
		},
		{
			name:      "token prefix reason",
			err:       errors.New("execution reverted: MockUSDC: transfer amount exceeds balance"),
			wantCode:  utils.ErrCodeRemoteFailure,
			wantInMsg: "exceeds balance",
		},
		{
			name:      "ownership reason maps to unauthorized",
			err:       errors.New("execution reverted: MilestoneVault: caller is not the owner"),
			wantCode:  utils.ErrCodeUnauthorized,
			wantInMsg: "caller is not the owner",
		},
		{
			name:     "opaque error falls back to remote failure",
			err:      errors.New("connection reset by peer"),
			wantCode: utils.ErrCodeRemoteFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := classifyRemoteError(tt.err)
			if classified.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", classified.Code, tt.wantCode)
			}
			if tt.wantInMsg != "" && !strings.Contains(classified.Message, tt.wantInMsg) {
				t.Errorf("message %q does not contain %q", classified.Message, tt.wantInMsg)
			}
		})
	}
}

func TestClassifyRemoteErrorPassthrough(t *testing.T) {
	for _, code := range []string{
		utils.ErrCodeProviderUnavailable,
		utils.ErrCodeWrongNetwork,
		utils.ErrCodeUserRejected,
		utils.ErrCodeInvalidInput,
		utils.ErrCodeInsufficientFunds,
		utils.ErrCodeUnauthorized,
		utils.ErrCodeConfiguration,
	} {
		t.Run(code, func(t *testing.T) {
			original := utils.NewAppError(code, "already classified")
			classified := classifyRemoteError(original)
			if classified != original {
				t.Errorf("expected passthrough of %s, got %+v", code, classified)
			}
		})
	}
}

func TestClassifyRemoteErrorTruncation(t *testing.T) {
	long := strings.Repeat("x", 300)
	classified := classifyRemoteError(errors.New(long))
	if len([]rune(classified.Message)) > 121 {
		t.Errorf("message not truncated: %d chars", len(classified.Message))
	}
}
