package utils

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone is returned for numbers that do not parse or validate
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhoneNumber parses a phone number and returns it in E.164 form.
// Numbers without a country code are interpreted in defaultRegion (ISO 3166 alpha-2).
func NormalizePhoneNumber(phone, defaultRegion string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", errors.New("phone number cannot be empty")
	}

	num, err := phonenumbers.Parse(phone, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", ErrInvalidPhone
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// FormatPhoneNumberForDisplay formats an E.164 number in international notation.
// Unparseable input is returned unchanged.
func FormatPhoneNumberForDisplay(phone string) string {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
