package domain

type CheckoutStatus string

const (
	CheckoutStatusInitiated        CheckoutStatus = "INITIATED"
	CheckoutStatusValidating       CheckoutStatus = "VALIDATING"
	CheckoutStatusSubmittingOrder  CheckoutStatus = "SUBMITTING_ORDER"
	CheckoutStatusUnlockingLibrary CheckoutStatus = "UNLOCKING_LIBRARY"
	CheckoutStatusCompleted        CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed           CheckoutStatus = "FAILED"
)

var checkoutTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusInitiated:       {CheckoutStatusValidating, CheckoutStatusFailed},
	CheckoutStatusValidating:      {CheckoutStatusSubmittingOrder, CheckoutStatusFailed},
	CheckoutStatusSubmittingOrder: {CheckoutStatusUnlockingLibrary, CheckoutStatusFailed},
	// Unlock failures never fail the checkout, the purchase already succeeded.
	CheckoutStatusUnlockingLibrary: {CheckoutStatusCompleted},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range checkoutTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}
