package validators

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/fulfillment-engine/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-engine/pkg/errors"
)

type placement struct {
	Address       *struct{ City string } `json:"address,omitempty" validate:"required_without=AddressID,excluded_with=AddressID"`
	AddressID     *uuid.UUID             `json:"addressId,omitempty"`
	PaymentMethod enums.PaymentMethod    `json:"paymentMethod" validate:"required,enum"`
	Lines         []struct {
		Quantity int `json:"quantity" validate:"gt=0"`
	} `json:"lines" validate:"required,min=1,dive"`
}

type refund struct {
	Flow         enums.Flow          `json:"flow,omitempty" validate:"omitempty,enum"`
	RefundAmount decimal.NullDecimal `json:"refundAmount" validate:"omitempty,gte=0"`
}

func decode(t *testing.T, body string, dest any) map[string]string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSONBody(req, dest)
	if err == nil {
		return nil
	}
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %s", typed.Code())
	}
	details, _ := typed.Details().(map[string]string)
	if details == nil {
		details = map[string]string{}
	}
	return details
}

func TestDecodeAcceptsValidPlacement(t *testing.T) {
	var p placement
	body := `{"addressId":"` + uuid.NewString() + `","paymentMethod":"cod","lines":[{"quantity":2}]}`
	if details := decode(t, body, &p); details != nil {
		t.Fatalf("unexpected errors %v", details)
	}
	if p.PaymentMethod != enums.PaymentMethodCOD {
		t.Fatalf("unexpected payment method %s", p.PaymentMethod)
	}
}

func TestDecodeRequiresExactlyOneAddress(t *testing.T) {
	var none placement
	details := decode(t, `{"paymentMethod":"cod","lines":[{"quantity":1}]}`, &none)
	if details["address"] == "" {
		t.Fatalf("expected address error, got %v", details)
	}

	var both placement
	body := `{"address":{"City":"Pune"},"addressId":"` + uuid.NewString() + `","paymentMethod":"cod","lines":[{"quantity":1}]}`
	details = decode(t, body, &both)
	if !strings.Contains(details["address"], "omitted") {
		t.Fatalf("expected exclusion error, got %v", details)
	}
}

func TestDecodeRejectsUnknownEnumValues(t *testing.T) {
	var p placement
	details := decode(t, `{"addressId":"`+uuid.NewString()+`","paymentMethod":"barter","lines":[{"quantity":1}]}`, &p)
	if !strings.Contains(details["paymentMethod"], "barter") {
		t.Fatalf("expected enum error naming the value, got %v", details)
	}

	var r refund
	if details := decode(t, `{"flow":"teleport"}`, &r); details["flow"] == "" {
		t.Fatalf("expected flow error, got %v", details)
	}
}

func TestDecodeReportsNestedLinePaths(t *testing.T) {
	var p placement
	details := decode(t, `{"addressId":"`+uuid.NewString()+`","paymentMethod":"cod","lines":[{"quantity":1},{"quantity":0}]}`, &p)
	if details["lines[1].quantity"] == "" {
		t.Fatalf("expected nested path, got %v", details)
	}
}

func TestDecodeChecksMoneyAmounts(t *testing.T) {
	var ok refund
	if details := decode(t, `{"refundAmount":"12.50"}`, &ok); details != nil {
		t.Fatalf("unexpected errors %v", details)
	}
	var absent refund
	if details := decode(t, `{"refundAmount":null}`, &absent); details != nil {
		t.Fatalf("null amount must pass, got %v", details)
	}
	var negative refund
	if details := decode(t, `{"refundAmount":"-1"}`, &negative); details["refundAmount"] == "" {
		t.Fatalf("expected negative amount error, got %v", details)
	}
}

func TestDecodeRejectsTrailingObjects(t *testing.T) {
	var r refund
	if details := decode(t, `{"flow":"return"}{"flow":"cancel"}`, &r); details == nil {
		t.Fatal("expected error for concatenated objects")
	}
}

func TestSanitizeStringIsRuneAware(t *testing.T) {
	if got := SanitizeString("  héllo\x00 wörld  ", 7); got != "héllo w" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
	reason, note := "  late \x07 ", "kept\nlines"
	SanitizeFields(100, &reason, nil, &note)
	if reason != "late" || note != "kept\nlines" {
		t.Fatalf("unexpected fields %q %q", reason, note)
	}
}

func TestParseQueryEnum(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?kind=aggregated&storeId=nope", nil)
	kind, err := ParseQueryEnum(req, "kind", enums.ParseOrderKind)
	if err != nil || kind == nil || *kind != enums.OrderKindAggregated {
		t.Fatalf("unexpected kind %v err=%v", kind, err)
	}
	missing, err := ParseQueryEnum(req, "status", enums.ParseOrderStatus)
	if err != nil || missing != nil {
		t.Fatalf("absent parameter should yield nil, got %v err=%v", missing, err)
	}
	if _, err := ParseQueryUUID(req, "storeId"); err == nil {
		t.Fatal("expected invalid uuid error")
	}
}
