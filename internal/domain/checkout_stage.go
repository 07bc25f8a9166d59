package domain

type CheckoutStage string

const (
	CheckoutStageIdle                  CheckoutStage = "IDLE"
	CheckoutStageCartValidated         CheckoutStage = "CART_VALIDATED"
	CheckoutStagePaymentSessionCreated CheckoutStage = "PAYMENT_SESSION_CREATED"
	CheckoutStageOrderPersisted        CheckoutStage = "ORDER_PERSISTED"
	CheckoutStageInventoryReconciled   CheckoutStage = "INVENTORY_RECONCILED"
	CheckoutStageComplete              CheckoutStage = "COMPLETE"
	CheckoutStageAborted               CheckoutStage = "ABORTED"
)

var checkoutTransitions = map[CheckoutStage]CheckoutStage{
	CheckoutStageIdle:                  CheckoutStageCartValidated,
	CheckoutStageCartValidated:         CheckoutStagePaymentSessionCreated,
	CheckoutStagePaymentSessionCreated: CheckoutStageOrderPersisted,
	CheckoutStageOrderPersisted:        CheckoutStageInventoryReconciled,
	CheckoutStageInventoryReconciled:   CheckoutStageComplete,
}

func (s CheckoutStage) IsTerminal() bool {
	return s == CheckoutStageComplete || s == CheckoutStageAborted
}

// CanTransitionTo allows the single forward step, or aborting from any non-terminal stage.
func (s CheckoutStage) CanTransitionTo(next CheckoutStage) bool {
	if s.IsTerminal() {
		return false
	}
	if next == CheckoutStageAborted {
		return true
	}
	return checkoutTransitions[s] == next
}

// String representation (for logging)
func (s CheckoutStage) String() string {
	return string(s)
}
