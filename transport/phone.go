package transport

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizeE164 formats a phone number to E.164 ("+5511999990000"). Numbers
// without a leading "+" are tried against defaultRegion first and then as
// an international number. If nothing parses the trimmed input is returned.
func NormalizeE164(input, defaultRegion string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	candidates := []string{trimmed}
	if !strings.HasPrefix(trimmed, "+") {
		candidates = append(candidates, "+"+trimmed)
	}

	for _, candidate := range candidates {
		number, err := phonenumbers.Parse(candidate, defaultRegion)
		if err != nil || !phonenumbers.IsValidNumber(number) {
			continue
		}
		return phonenumbers.Format(number, phonenumbers.E164)
	}
	return trimmed
}

// RegionForCountryCode maps a calling code such as "55" to its main region
// ("BR"). Unknown codes give "ZZ", which phonenumbers treats as no region.
func RegionForCountryCode(countryCode string) string {
	code := 0
	for _, r := range countryCode {
		if r < '0' || r > '9' {
			return "ZZ"
		}
		code = code*10 + int(r-'0')
	}
	return phonenumbers.GetRegionCodeForCountryCode(code)
}
