package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	CodeProductNotFound       Code = "PRODUCT_NOT_FOUND"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodeNoFulfillmentSource   Code = "NO_FULFILLMENT_SOURCE"
	CodeInvalidTransition     Code = "INVALID_TRANSITION"
	CodeDuplicateRequest      Code = "DUPLICATE_REQUEST"
	CodeReturnWindowExpired   Code = "RETURN_WINDOW_EXPIRED"
	CodeInsufficientReturnQty Code = "INSUFFICIENT_RETURN_QUANTITY"
	CodeMissingWarrantyCodes  Code = "MISSING_WARRANTY_CODES"
	CodeOrderNotFound         Code = "ORDER_NOT_FOUND"
	CodeActorNotAuthorized    Code = "ACTOR_NOT_AUTHORIZED"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
	CodeProductNotFound: {
		HTTPStatus:     http.StatusNotFound,
		PublicMessage:  "product not found",
		DetailsAllowed: true,
	},
	CodeInsufficientStock: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "insufficient stock",
		DetailsAllowed: true,
	},
	CodeNoFulfillmentSource: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "no fulfillment source found",
		DetailsAllowed: true,
	},
	CodeInvalidTransition: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "invalid status transition",
		DetailsAllowed: true,
	},
	CodeDuplicateRequest: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "a request is already open for this line",
		DetailsAllowed: true,
	},
	CodeReturnWindowExpired: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "return window expired",
		DetailsAllowed: true,
	},
	CodeInsufficientReturnQty: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "return quantity exceeds remaining quantity",
		DetailsAllowed: true,
	},
	CodeMissingWarrantyCodes: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "warranty codes missing",
		DetailsAllowed: true,
	},
	CodeOrderNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "order not found",
	},
	CodeActorNotAuthorized: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "actor may not act on this order",
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

// HasCode reports whether err carries the provided code anywhere in its chain.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
