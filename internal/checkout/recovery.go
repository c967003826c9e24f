package checkout

import "strings"

// RecoveryAction is one of the fixed remediations offered after a payment or
// order-creation failure. Recovery is always user-initiated; nothing here
// retries on its own.
type RecoveryAction string

const (
	ActionRefreshSession RecoveryAction = "refresh-session"
	ActionRetry          RecoveryAction = "retry"
	ActionCancel         RecoveryAction = "cancel"
	ActionReauthenticate RecoveryAction = "re-authenticate"
	ActionGoHome         RecoveryAction = "go-home"
)

// RecoveryAdvice is what the UI should offer for a given failure.
type RecoveryAdvice struct {
	SessionRelated bool             `json:"sessionRelated"`
	Actions        []RecoveryAction `json:"actions"`
}

var sessionTokens = []string{"session", "expired", "authenticated"}

// AdviseRecovery classifies a failure message and returns the action menu.
// Session-looking failures get refresh-session foregrounded; the remaining
// actions are always available.
func AdviseRecovery(message string) RecoveryAdvice {
	lower := strings.ToLower(message)

	advice := RecoveryAdvice{}
	for _, tok := range sessionTokens {
		if strings.Contains(lower, tok) {
			advice.SessionRelated = true
			break
		}
	}

	if advice.SessionRelated {
		advice.Actions = append(advice.Actions, ActionRefreshSession)
	}
	advice.Actions = append(advice.Actions, ActionRetry, ActionCancel, ActionReauthenticate, ActionGoHome)
	return advice
}
