// Package payment validates card form input before order submission.
// Purely local and synchronous: no network, no persistence.
package payment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hajarsalhi/book-store-sub000/internal/domain"
)

const (
	FieldCardNumber = "card_number"
	FieldCardHolder = "card_holder"
	FieldExpiryDate = "expiry_date"
	FieldCVV        = "cvv"
)

var (
	cardNumberRe = regexp.MustCompile(`^\d{16}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// Validate checks all card fields and reports every failure at once, so the
// form can highlight them together.
func Validate(details domain.PaymentDetails) (bool, map[string]string) {
	fieldErrors := make(map[string]string)

	if !cardNumberRe.MatchString(stripSpaces(details.CardNumber)) {
		fieldErrors[FieldCardNumber] = "card number must be 16 digits"
	}

	if strings.TrimSpace(details.CardHolder) == "" {
		fieldErrors[FieldCardHolder] = "cardholder name is required"
	}

	if !expiryRe.MatchString(details.ExpiryDate) {
		fieldErrors[FieldExpiryDate] = "expiry date must be MM/YY"
	}

	if !cvvRe.MatchString(details.CVV) {
		fieldErrors[FieldCVV] = "CVV must be 3 or 4 digits"
	}

	return len(fieldErrors) == 0, fieldErrors
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
