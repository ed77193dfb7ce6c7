package knackpy

import (
	"strings"
	"time"
)

// ResolveTimezone resolves a timezone string to a *time.Location.
//
// Knack stores timezone information in app metadata as a common name, e.g.
// "Eastern Time (US & Canada)", not as an IANA database name. Resolution is
// two-tiered, first success wins:
//
//  1. treat the input as an IANA name (authoritative, zero-maintenance);
//  2. look the input up case-insensitively in the common-name table and
//     resolve the mapped IANA name. Duplicate common names resolve to the
//     first table entry.
//
// Callers can therefore override the metadata common name with any
// IANA-compliant name. If both tiers fail, the error is an
// *UnknownTimezoneError naming the input.
func ResolveTimezone(tzinfo string) (*time.Location, error) {
	// LoadLocation("") means UTC; an empty metadata timezone is an error here.
	if tzinfo != "" {
		if loc, err := time.LoadLocation(tzinfo); err == nil {
			return loc, nil
		}

		for _, entry := range timezones {
			if !strings.EqualFold(entry.CommonName, tzinfo) {
				continue
			}
			loc, err := time.LoadLocation(entry.IANAName)
			if err != nil {
				// Mapped name missing from the host tz database; report the
				// original input as unresolved.
				break
			}
			return loc, nil
		}
	}

	return nil, &UnknownTimezoneError{Input: tzinfo}
}
