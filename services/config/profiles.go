//go:build !rp2040

package config

// Built-in board profiles, keyed by board name. A profile is applied on top
// of Default and below any user file.

const profileSim800Hat = `
modem:
  baud: 9600
sleep:
  settle: 1s
`

// profileBench shortens every wait so an episode can be watched on a desk.
const profileBench = `
verbose: true
modem:
  power_settle: 3s
  connect_timeout: 30s
sleep:
  short: 5s
  long: 1m
`

var profiles = map[string][]byte{
	"sim800-hat": []byte(profileSim800Hat),
	"bench":      []byte(profileBench),
}

// ProfileLookup resolves a board profile. Tests may replace it.
var ProfileLookup = func(board string) ([]byte, bool) {
	b, ok := profiles[board]
	return b, ok
}
