package models

// BillingStatus summarizes the billing step of a creation.
type BillingStatus string

const (
	BillingProvisioned BillingStatus = "PROVISIONED"
	BillingUnavailable BillingStatus = "UNAVAILABLE"
	BillingRejected    BillingStatus = "REJECTED"
)

// BillingAccount is the pass-through result of the remote billing call.
// It is not persisted here; the billing service owns it.
type BillingAccount struct {
	AccountID string `json:"account_id"`
	Status    string `json:"status"`
}

// BillingOutcome is attached to a creation result. Degraded creations still
// succeeded for the patient record.
type BillingOutcome struct {
	Status   BillingStatus   `json:"status"`
	Account  *BillingAccount `json:"account,omitempty"`
	Degraded bool            `json:"degraded"`
	Reason   string          `json:"reason,omitempty"`
}
