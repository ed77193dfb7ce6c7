package knackpy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTimezone_IANAName(t *testing.T) {
	loc, err := ResolveTimezone("US/Central")
	require.NoError(t, err)
	assert.Equal(t, "US/Central", loc.String())
}

func TestResolveTimezone_CommonName(t *testing.T) {
	loc, err := ResolveTimezone("Eastern Time (US & Canada)")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestResolveTimezone_CommonNameCaseInsensitive(t *testing.T) {
	loc, err := ResolveTimezone("eastern time (us & canada)")
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestResolveTimezone_IANATakesPrecedence(t *testing.T) {
	// "UTC" is both a valid IANA name and a common-name entry mapped to
	// Etc/UTC; tier 1 must win.
	loc, err := ResolveTimezone("UTC")
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestResolveTimezone_Unknown(t *testing.T) {
	_, err := ResolveTimezone("Not A Zone")
	var tzErr *UnknownTimezoneError
	require.ErrorAs(t, err, &tzErr)
	assert.Equal(t, "Not A Zone", tzErr.Input)
}

func TestResolveTimezone_EmptyInput(t *testing.T) {
	// time.LoadLocation("") means UTC, which must not leak through here.
	_, err := ResolveTimezone("")
	var tzErr *UnknownTimezoneError
	require.ErrorAs(t, err, &tzErr)
}

func TestTimezoneTable_MapsToLoadableZones(t *testing.T) {
	for _, entry := range timezones {
		_, err := ResolveTimezone(entry.CommonName)
		assert.NoErrorf(t, err, "common name %q (-> %s) did not resolve", entry.CommonName, entry.IANAName)
	}
}
