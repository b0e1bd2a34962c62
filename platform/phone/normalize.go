// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"membership_backend/platform/config"

	"github.com/nyaruka/phonenumbers"
)

// Normalizer formats phone numbers to E.164 using a default region for
// numbers written without a country prefix.
type Normalizer struct {
	region string
}

// NewNormalizer creates a Normalizer for the given ISO 3166 region code.
func NewNormalizer(region string) *Normalizer {
	return &Normalizer{region: strings.ToUpper(strings.TrimSpace(region))}
}

// NewNormalizerFromConfig creates a Normalizer for the configured default
// region.
func NewNormalizerFromConfig(cfg config.PhoneConfig) *Normalizer {
	return NewNormalizer(cfg.GetPhoneDefaultRegion())
}

// NormalizeE164 formats a phone number to E.164. If parsing fails or the
// number is not valid for its region, it returns the trimmed input.
func (n *Normalizer) NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, n.region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
