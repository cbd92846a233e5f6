package domain

import "time"

// NotificationType identifies the lifecycle event a notification announces.
type NotificationType string

const (
	NotifyWelcome             NotificationType = "welcome"
	NotifyVerificationUpdated NotificationType = "verification_updated"
	NotifyContractSigned      NotificationType = "contract_signed"
	NotifyContractActivated   NotificationType = "contract_activated"
	NotifyWithdrawalRequested NotificationType = "withdrawal_requested"
)

// Notification is a fire-and-forget signal emitted to the external
// notification collaborator on lifecycle events. Delivery content and
// presentation are out of scope; only the emitted signal is modeled.
type Notification struct {
	Type         NotificationType `json:"type"`
	ContractorID string           `json:"contractor_id"`
	ContractID   string           `json:"contract_id,omitempty"`
	WithdrawalID string           `json:"withdrawal_id,omitempty"`
	Message      string           `json:"message,omitempty"`
	EmittedAt    time.Time        `json:"emitted_at"`
}
