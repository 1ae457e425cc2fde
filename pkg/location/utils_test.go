package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParseAccessPoints covers nmcli terse output with escaped BSSID
// colons, garbage lines and invalid MAC addresses.
func TestParseAccessPoints(t *testing.T) {
	output := `00\:14\:22\:01\:23\:45:70
AA\:BB\:CC\:DD\:EE\:FF:54

not-a-scan-line
00\:14\:22\:01\:23\:45:strong
ZZ\:ZZ\:ZZ\:ZZ\:ZZ\:ZZ:80
`

	aps := parseAccessPoints(output)

	assert.Len(t, aps, 2)
	assert.Equal(t, "00:14:22:01:23:45", aps[0].MACAddress)
	assert.Equal(t, 70.0, aps[0].SignalStrength)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", aps[1].MACAddress)
	assert.Equal(t, 54.0, aps[1].SignalStrength)
}

// TestParseCellTower covers a registered modem's key/value output,
// including the hexadecimal LAC and CID.
func TestParseCellTower(t *testing.T) {
	output := `modem.generic.state : registered
modem.3gpp.mcc       : 262
modem.3gpp.mnc       : 2
modem.3gpp.lac       : 1a2b
modem.3gpp.cid       : 0fe3
`

	tower, ok := parseCellTower(output)

	assert.True(t, ok)
	assert.Equal(t, 262, tower.MobileCountryCode)
	assert.Equal(t, 2, tower.MobileNetworkCode)
	assert.Equal(t, 0x1a2b, tower.LocationAreaCode)
	assert.Equal(t, 0x0fe3, tower.CellID)
}

// TestParseCellTower_Unregistered verifies a modem without a serving cell
// yields no tower rather than a partially filled one.
func TestParseCellTower_Unregistered(t *testing.T) {
	output := `modem.generic.state : searching
modem.3gpp.lac       : 1a2b
`

	_, ok := parseCellTower(output)
	assert.False(t, ok)
}

// TestIsValidMAC covers the accepted address shape.
func TestIsValidMAC(t *testing.T) {
	assert.True(t, isValidMAC("00:14:22:01:23:45"))
	assert.True(t, isValidMAC("ff:ff:ff:ff:ff:ff"))
	assert.False(t, isValidMAC("00:14:22:01:23"))
	assert.False(t, isValidMAC("00:14:22:01:23:4"))
	assert.False(t, isValidMAC("zz:14:22:01:23:45"))
	assert.False(t, isValidMAC("001422012345"))
}
