package phone

import "testing"

func TestFormatInternationalNumber(t *testing.T) {
	n := Format("+44 7911 123456")

	if n.CountryCode != "44" {
		t.Fatalf("expected country code 44, got %q", n.CountryCode)
	}
	if n.Number != "7911123456" {
		t.Fatalf("expected national number 7911123456, got %q", n.Number)
	}
	if n.NumberFormatted != "791-112-3456" {
		t.Fatalf("expected formatted 791-112-3456, got %q", n.NumberFormatted)
	}
	if n.E164 != "+447911123456" {
		t.Fatalf("expected E164 +447911123456, got %q", n.E164)
	}
	if n.CountryCodeAndNumber != "+44 791-112-3456" {
		t.Fatalf("unexpected composite %q", n.CountryCodeAndNumber)
	}
	if n.Region != "GB" {
		t.Fatalf("expected region GB, got %q", n.Region)
	}
}

func TestFormatDefaultsToCountryCodeOne(t *testing.T) {
	n := Format("555-123-4567")

	if n.CountryCode != "1" {
		t.Fatalf("expected default country code 1, got %q", n.CountryCode)
	}
	if n.NumberFormatted != "555-123-4567" {
		t.Fatalf("expected formatted 555-123-4567, got %q", n.NumberFormatted)
	}
	if n.E164 != "+15551234567" {
		t.Fatalf("expected E164 +15551234567, got %q", n.E164)
	}
}

func TestFormatKeepsNonTenDigitNumbersUnformatted(t *testing.T) {
	n := Format("0612 3456")

	if n.Number != "06123456" || n.NumberFormatted != "06123456" {
		t.Fatalf("expected raw digits, got %q / %q", n.Number, n.NumberFormatted)
	}
	if n.CountryCode != "1" {
		t.Fatalf("expected default country code without leading plus, got %q", n.CountryCode)
	}
}

func TestFormatPlusWithoutEnoughDigitsKeepsDefault(t *testing.T) {
	n := Format("+31 6123")

	if n.CountryCode != "1" || n.Number != "316123" {
		t.Fatalf("expected no country split, got %q %q", n.CountryCode, n.Number)
	}
}

func TestProblemFlagsUnknownCodesAndInvalidNumbers(t *testing.T) {
	cases := map[string]string{
		"+44 7400 123456":   "",
		"+999 212 555 0123": "unknown country code +999",
		"+1 123 456 7890":   "not a valid number for region US",
	}
	for raw, want := range cases {
		if got := Format(raw).Problem(); got != want {
			t.Fatalf("%s: expected %q, got %q", raw, want, got)
		}
	}
}
