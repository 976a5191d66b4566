package errors

import (
	stdErrors "errors"
	"fmt"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodeNotPermitted    Code = "OPERATION_NOT_PERMITTED"
	CodeOutOfStock      Code = "OUT_OF_STOCK"
	CodeExpired         Code = "EXPIRED"
	CodePastPickup      Code = "PAST_PICKUP"
	CodeInvalidQuantity Code = "INVALID_QUANTITY"
	CodeStoreBusy       Code = "STORE_BUSY"
	CodeIO              Code = "IO_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
)

type Metadata struct {
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		Retryable:      false,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeNotFound: {
		Retryable:      false,
		PublicMessage:  "product not found",
		DetailsAllowed: true,
	},
	CodeNotPermitted: {
		Retryable:      true,
		PublicMessage:  "operation allowed only during manager hours",
		DetailsAllowed: true,
	},
	CodeOutOfStock: {
		Retryable:      false,
		PublicMessage:  "not enough in stock",
		DetailsAllowed: true,
	},
	CodeExpired: {
		Retryable:      false,
		PublicMessage:  "product is no longer valid for sale",
		DetailsAllowed: true,
	},
	CodePastPickup: {
		Retryable:      false,
		PublicMessage:  "pickup time must be in the future",
		DetailsAllowed: true,
	},
	CodeInvalidQuantity: {
		Retryable:      false,
		PublicMessage:  "quantity must be positive",
		DetailsAllowed: true,
	},
	CodeStoreBusy: {
		Retryable:      true,
		PublicMessage:  "store is in use by another warehouse process",
		DetailsAllowed: true,
	},
	CodeIO: {
		Retryable:      true,
		PublicMessage:  "storage unavailable",
		DetailsAllowed: false,
	},
	CodeInternal: {
		Retryable:      true,
		PublicMessage:  "internal error",
		DetailsAllowed: false,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// CodeOf returns the code of err, CodeInternal for untyped errors.
func CodeOf(err error) Code {
	return As(err).Code()
}
