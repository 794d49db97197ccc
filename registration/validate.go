package registration

import (
	"regexp"
	"strings"
)

// Payment methods offered by the flow.
const (
	MethodVodafoneCash = "vodafone_cash"
	MethodEtisalatCash = "etisalat_cash"
	MethodOrangeCash   = "orange_cash"
	MethodInstaPay     = "instapay"
)

// Methods lists the selectable payment methods in display order.
var Methods = []string{MethodVodafoneCash, MethodEtisalatCash, MethodOrangeCash, MethodInstaPay}

// KnownMethod reports whether the value is a selectable payment method.
func KnownMethod(method string) bool {
	for _, m := range Methods {
		if m == method {
			return true
		}
	}
	return false
}

var (
	mobileRe   = regexp.MustCompile(`^01[0125][0-9]{8}$`)
	instapayRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z][a-zA-Z0-9]*$`)
	spacerRe   = regexp.MustCompile(`[\s()-]+`)
)

// normalizeMobile strips separators and international prefixes from a phone
// number so "+20 101 234 5678" and "01012345678" compare equal.
func normalizeMobile(text string) string {
	n := spacerRe.ReplaceAllString(strings.TrimSpace(text), "")
	switch {
	case strings.HasPrefix(n, "+20"):
		n = "0" + n[3:]
	case strings.HasPrefix(n, "0020"):
		n = "0" + n[4:]
	case strings.HasPrefix(n, "20") && len(n) == 12:
		n = "0" + n[2:]
	}
	return n
}

// ValidateWhatsApp checks and normalizes a WhatsApp contact number.
func ValidateWhatsApp(text string) (string, error) {
	n := normalizeMobile(text)
	if !mobileRe.MatchString(n) {
		return "", &ValidationError{Msg: "That does not look like a valid WhatsApp number. Send it like 01012345678."}
	}
	return n, nil
}

// ValidatePaymentDetails checks the account details submitted for a method.
// Wallet methods expect a mobile wallet number; InstaPay also accepts a
// payment address such as name@bank.
func ValidatePaymentDetails(method, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	switch method {
	case MethodVodafoneCash, MethodEtisalatCash, MethodOrangeCash:
		n := normalizeMobile(trimmed)
		if !mobileRe.MatchString(n) {
			return "", &ValidationError{Msg: "Send the wallet number like 01012345678."}
		}
		return n, nil
	case MethodInstaPay:
		if instapayRe.MatchString(trimmed) {
			return trimmed, nil
		}
		n := normalizeMobile(trimmed)
		if mobileRe.MatchString(n) {
			return n, nil
		}
		return "", &ValidationError{Msg: "Send your InstaPay address like name@bank, or a mobile number."}
	default:
		return "", &ValidationError{Msg: "Pick a payment method first."}
	}
}
