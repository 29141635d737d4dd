package validate

import (
	"fmt"
	"regexp"
)

// seriesKeyRx keeps series keys URL- and log-safe: lowercase slug form.
var seriesKeyRx = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,49}$`)

// planTokenRx matches tokens minted by plan creation.
var planTokenRx = regexp.MustCompile(`^plan_[0-9a-f]{32}$`)

// slotIDRx matches the UUID form the ledger mints.
var slotIDRx = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

// SeriesKey validates a series identifier: 1-50 chars, lowercase letters,
// digits, hyphen or underscore, starting alphanumeric.
func SeriesKey(v string) error {
	if v == "" {
		return fmt.Errorf("seriesKey is required")
	}
	if !seriesKeyRx.MatchString(v) {
		return fmt.Errorf("seriesKey must be a lowercase slug of at most 50 characters")
	}
	return nil
}

// PlanToken validates a plan token's shape before hitting the store.
func PlanToken(v string) error {
	if v == "" {
		return fmt.Errorf("plan token is required")
	}
	if !planTokenRx.MatchString(v) {
		return fmt.Errorf("invalid plan token")
	}
	return nil
}

// SlotID validates a slot identifier's shape.
func SlotID(v string) error {
	if v == "" {
		return fmt.Errorf("slotId is required")
	}
	if !slotIDRx.MatchString(v) {
		return fmt.Errorf("invalid slotId")
	}
	return nil
}

// SessionKey validates the X-Session-Token header value. Issuance is out of
// scope; only shape is enforced here.
func SessionKey(v string) error {
	if v == "" {
		return fmt.Errorf("X-Session-Token header is required")
	}
	if len(v) > 128 {
		return fmt.Errorf("session token exceeds 128 characters")
	}
	return nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}
