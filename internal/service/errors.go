package service

import (
	"fmt"

	"github.com/anneth/shop/internal/domain"
)

// CheckoutError records the stage a checkout had reached when it was aborted.
type CheckoutError struct {
	Stage domain.CheckoutStage
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout aborted after %s: %v", e.Stage, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}
