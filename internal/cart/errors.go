package cart

import "fmt"

// Machine-readable error codes surfaced in JSON error responses.
// They correspond one-to-one with the cart's validation failure modes.
const (
	CodeNonConvertibleQuantity = "NON_CONVERTIBLE_QUANTITY"
	CodeZeroQuantity           = "ZERO_QUANTITY"
	CodeNegativeQuantity       = "NEGATIVE_QUANTITY"
	CodeTooLargeQuantity       = "TOO_LARGE_QUANTITY"
	CodeItemNotInCart          = "ITEM_NOT_IN_CART"
	CodeItemNotInDatabase      = "ITEM_NOT_IN_DATABASE"
)

// Error is a user-facing cart error. Details carries contextual values
// (pk, quantity, max_quantity) that are included in the error response body.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// ItemNotInCart reports an operation on a pk absent from the cart.
func ItemNotInCart(pk string) *Error {
	return &Error{
		Code:    CodeItemNotInCart,
		Message: fmt.Sprintf("cart doesn't contain an item with pk %s", pk),
		Details: map[string]any{"pk": pk},
	}
}

// ItemNotInDatabase reports an add of a pk with no matching product row.
func ItemNotInDatabase(pk string) *Error {
	return &Error{
		Code:    CodeItemNotInDatabase,
		Message: fmt.Sprintf("database doesn't have an item with pk %s", pk),
		Details: map[string]any{"pk": pk},
	}
}

func nonConvertibleQuantity(raw string) *Error {
	return &Error{
		Code:    CodeNonConvertibleQuantity,
		Message: fmt.Sprintf("can't convert quantity to an integer (%s)", raw),
		Details: map[string]any{"quantity": raw},
	}
}

func zeroQuantity() *Error {
	return &Error{
		Code:    CodeZeroQuantity,
		Message: "item quantity must not be zero",
	}
}

func negativeQuantity(quantity int) *Error {
	return &Error{
		Code:    CodeNegativeQuantity,
		Message: fmt.Sprintf("item quantity is negative (%d)", quantity),
		Details: map[string]any{"quantity": quantity},
	}
}

func tooLargeQuantity(quantity, max int) *Error {
	return &Error{
		Code:    CodeTooLargeQuantity,
		Message: fmt.Sprintf("%d exceeds the allowed maximum of %d", quantity, max),
		Details: map[string]any{"quantity": quantity, "max_quantity": max},
	}
}
