package checkout

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrCheckoutInProgress  = errors.New("another checkout is already in progress for this user")
	IllegalTransitionError = errors.New("illegal transition of checkout status")
)
