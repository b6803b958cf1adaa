// Package phone turns free-form phone input into the CRM's structured shape.
package phone

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultCountryCode = "1"
	nationalDigits     = 10
)

// Number is the structured form of a submitted phone number.
type Number struct {
	CountryCode          string `json:"countryCode"`
	Number               string `json:"number"`
	NumberFormatted      string `json:"numberFormatted"`
	E164                 string `json:"E164"`
	CountryCodeAndNumber string `json:"countryCodeAndNumber"`
	// Region is the ISO region for CountryCode, "ZZ" when the code is unknown.
	Region string `json:"-"`
}

// Format splits a raw phone value into country code and national number.
//
// Non-digits are stripped. When the raw value starts with "+" and has more
// than ten digits, everything before the last ten digits is the country code;
// otherwise the country code defaults to "1". A ten digit national number is
// rendered as XXX-XXX-XXXX, anything else is kept as the bare digit string.
func Format(raw string) Number {
	trimmed := strings.TrimSpace(raw)
	digits := digitsOnly(trimmed)
	countryCode := defaultCountryCode

	if strings.HasPrefix(trimmed, "+") && len(digits) > nationalDigits {
		split := len(digits) - nationalDigits
		countryCode = digits[:split]
		digits = digits[split:]
	}

	formatted := digits
	if len(digits) == nationalDigits {
		formatted = digits[:3] + "-" + digits[3:6] + "-" + digits[6:]
	}

	return Number{
		CountryCode:          countryCode,
		Number:               digits,
		NumberFormatted:      formatted,
		E164:                 "+" + countryCode + digits,
		CountryCodeAndNumber: "+" + countryCode + " " + formatted,
		Region:               regionFor(countryCode),
	}
}

// Problem describes why the number looks wrong, or returns "" when the
// calling code is assigned and the number is valid for its region. The
// number is still sent as formatted either way.
func (n Number) Problem() string {
	if n.Region == "" || n.Region == phonenumbers.UNKNOWN_REGION {
		return "unknown country code +" + n.CountryCode
	}
	parsed, err := phonenumbers.Parse(n.E164, n.Region)
	if err != nil || !phonenumbers.IsValidNumberForRegion(parsed, n.Region) {
		return "not a valid number for region " + n.Region
	}
	return ""
}

func regionFor(countryCode string) string {
	code, err := strconv.Atoi(countryCode)
	if err != nil {
		return phonenumbers.UNKNOWN_REGION
	}
	return phonenumbers.GetRegionCodeForCountryCode(code)
}

func digitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
}
