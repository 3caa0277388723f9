package orchestrator

import (
	"errors"
	"regexp"
	"strings"

	"github.com/arcnetlabs/vault-client/pkg/utils"
)

var (
	reasonPattern  = regexp.MustCompile(`reason="([^"]+)"`)
	vaultPattern   = regexp.MustCompile(`MilestoneVault: (.+)`)
	factoryPattern = regexp.MustCompile(`VaultFactory: (.+)`)
	tokenPattern   = regexp.MustCompile(`MockUSDC: (.+)`)
)

// ownershipPhrases mark revert reasons caused by role/ownership checks.
var ownershipPhrases = []string{
	"not the owner",
	"only owner",
	"only the owner",
	"not authorized",
	"caller is not",
	"unauthorized",
}

// classifyRemoteError maps a raw provider error onto the client error
// taxonomy by pattern-matching known revert-reason shapes, falling back
// to a truncated raw message.
func classifyRemoteError(err error) *utils.AppError {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case utils.ErrCodeProviderUnavailable, utils.ErrCodeWrongNetwork,
			utils.ErrCodeUserRejected, utils.ErrCodeInvalidInput,
			utils.ErrCodeInsufficientFunds, utils.ErrCodeUnauthorized,
			utils.ErrCodeConfiguration:
			// Already classified upstream.
			return appErr
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "user rejected"), strings.Contains(lower, "user denied"):
		return utils.NewAppError(utils.ErrCodeUserRejected, "Transaction rejected by user")
	case strings.Contains(lower, "insufficient funds"):
		return utils.NewAppError(utils.ErrCodeInsufficientFunds, "Insufficient funds for transaction")
	}

	reason := extractRevertReason(msg)
	if reason != "" {
		if isOwnershipReason(reason) {
			return utils.NewAppError(utils.ErrCodeUnauthorized, reason)
		}
		return utils.NewAppError(utils.ErrCodeRemoteFailure, reason)
	}

	return utils.NewAppError(utils.ErrCodeRemoteFailure, truncate(msg, 120))
}

// extractRevertReason pulls a human-readable reason from known revert
// shapes emitted by the token, vault, and factory contracts.
func extractRevertReason(msg string) string {
	if m := reasonPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := vaultPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := factoryPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	if m := tokenPattern.FindStringSubmatch(msg); m != nil {
		return m[1]
	}
	return ""
}

func isOwnershipReason(reason string) bool {
	lower := strings.ToLower(reason)
	for _, phrase := range ownershipPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func truncate(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	return msg[:max] + "…"
}
