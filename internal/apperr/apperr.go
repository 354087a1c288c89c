// Package apperr holds the error kinds surfaced by the service layer. Handlers map a kind
// to an HTTP status; everything without a kind is an internal error.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "auth"
	KindPermission Kind = "permission"
	KindEncoding   Kind = "encoding"
)

// Error is a business-rule failure with a stable code. Two Errors match under errors.Is
// when their codes are equal.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrEmptyIngredientList = New(KindValidation, "empty_ingredient_list", "at least one ingredient is required")
	ErrDuplicateIngredient = New(KindValidation, "duplicate_ingredient", "ingredients must not repeat")
	ErrUnknownIngredient   = New(KindValidation, "unknown_ingredient", "ingredient does not exist")
	ErrAmountOutOfRange    = New(KindValidation, "amount_out_of_range", "ingredient amount is out of range")
	ErrCookingTimeRange    = New(KindValidation, "cooking_time_out_of_range", "cooking time must be between 1 and 32000 minutes")
	ErrImageRequired       = New(KindValidation, "image_required", "recipe image is required")

	ErrSelfFollow      = New(KindValidation, "self_follow", "you cannot follow yourself")
	ErrDuplicateFollow = New(KindConflict, "duplicate_follow", "already following this user")
	ErrNotFollowing    = New(KindValidation, "not_following", "subscription does not exist")

	ErrAlreadyFavorited = New(KindConflict, "already_present", "recipe is already in favorites")
	ErrNotFavorited     = New(KindValidation, "not_present", "recipe is not in favorites")
	ErrAlreadyInCart    = New(KindConflict, "already_present", "recipe is already in the shopping cart")
	ErrNotInCart        = New(KindValidation, "not_present", "recipe is not in the shopping cart")
	ErrEmptyCart        = New(KindValidation, "empty_cart", "shopping cart is empty")

	ErrEmailTaken         = New(KindConflict, "email_taken", "a user with this email already exists")
	ErrUsernameTaken      = New(KindConflict, "username_taken", "a user with this username already exists")
	ErrInvalidCredentials = New(KindValidation, "invalid_credentials", "unable to log in with provided credentials")
	ErrWrongPassword      = New(KindValidation, "wrong_password", "current password is incorrect")
	ErrAvatarNotSet       = New(KindValidation, "avatar_not_set", "avatar is not set")

	ErrUserNotFound       = New(KindNotFound, "user_not_found", "user not found")
	ErrRecipeNotFound     = New(KindNotFound, "recipe_not_found", "recipe not found")
	ErrIngredientNotFound = New(KindNotFound, "ingredient_not_found", "ingredient not found")

	ErrUnauthenticated = New(KindAuth, "not_authenticated", "authentication credentials were not provided")
	ErrNotAuthor       = New(KindPermission, "permission_denied", "only the author may change this recipe")

	ErrInvalidImageEncoding = New(KindEncoding, "invalid_image_encoding", "invalid image encoding")
)

// AlreadyPresent and NotPresent share codes between favorites and the cart, so
// errors.Is(err, ErrAlreadyPresent) holds for both lists.
var (
	ErrAlreadyPresent = ErrAlreadyFavorited
	ErrNotPresent     = ErrNotFavorited
)

type UnknownIngredientError struct {
	ID uint
}

func (e *UnknownIngredientError) Error() string {
	return fmt.Sprintf("ingredient with id %d does not exist", e.ID)
}

func (e *UnknownIngredientError) Unwrap() error { return ErrUnknownIngredient }

type AmountOutOfRangeError struct {
	ID     uint
	Amount int
	Min    int
	Max    int
}

func (e *AmountOutOfRangeError) Error() string {
	return fmt.Sprintf("amount %d for ingredient %d must be between %d and %d", e.Amount, e.ID, e.Min, e.Max)
}

func (e *AmountOutOfRangeError) Unwrap() error { return ErrAmountOutOfRange }

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// CodeOf reports the code of the first *Error in err's chain.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
