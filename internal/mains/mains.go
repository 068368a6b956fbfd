// Package mains infers the local electrical grid frequency so the low
// band of a recording can be read with hum in mind. A ground loop or an
// unbalanced cable shows up as a spike at the grid frequency and its
// harmonics, and which frequency that is depends on where the machine
// is plugged in.
package mains

import (
	"strings"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"

	"github.com/linuxmatters/goodvibrations/internal/spectral"
)

// fallbackHz is used whenever detection fails or the timezone carries
// no country. 50Hz grids are the more common worldwide.
const fallbackHz = 50

// Hum describes the grid interference to look for locally.
type Hum struct {
	// Hz is the grid frequency, 50 or 60.
	Hz int

	// Country is the detected country name, empty when detection fell
	// back to the default.
	Country string
}

// Detect resolves the local hum from the system timezone.
func Detect() Hum {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Hum{Hz: fallbackHz}
	}
	return DetectForTimezone(timezone)
}

// DetectForTimezone resolves the hum for a given IANA timezone.
// Exported so specific zones can be exercised directly.
func DetectForTimezone(timezone string) Hum {
	// UTC/GMT and the Etc/ zones have no country association.
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return Hum{Hz: fallbackHz}
	}

	tzMap, err := tz.NewTimezoneCountryMap()
	if err != nil {
		return Hum{Hz: fallbackHz}
	}
	country, err := tzMap.GetCountry(timezone)
	if err != nil {
		return Hum{Hz: fallbackHz}
	}
	return Hum{Hz: hzForCountry(country), Country: country}
}

// Bin returns the analyzer bin the hum fundamental lands in at the
// given capture rate.
func (h Hum) Bin(sampleRate int) int {
	return spectral.FrequencyBin(float64(h.Hz), sampleRate)
}

// Harmonics returns the analyzer bins of the first count multiples of
// the hum, fundamental included. Rectifier buzz is often strongest at
// the second harmonic, so reports scan a few.
func (h Hum) Harmonics(sampleRate, count int) []int {
	bins := make([]int, 0, count)
	for n := 1; n <= count; n++ {
		bins = append(bins, spectral.FrequencyBin(float64(h.Hz*n), sampleRate))
	}
	return bins
}

// hzForCountry returns the grid frequency for a country name.
// Unknown countries read 50Hz.
func hzForCountry(country string) int {
	// Japan splits 50/60Hz by region. The Tokyo half is 50Hz and the
	// more populous, so that is the call.
	if country == "Japan" {
		return fallbackHz
	}
	if hz60Countries[country] {
		return 60
	}
	return fallbackHz
}

// hz60Countries lists countries on a 60Hz grid. All others use 50Hz.
// Source: https://en.wikipedia.org/wiki/Mains_electricity_by_country
var hz60Countries = map[string]bool{
	// North America
	"United States": true,
	"Canada":        true,
	"Mexico":        true,

	// Central America
	"Belize":      true,
	"Costa Rica":  true,
	"El Salvador": true,
	"Guatemala":   true,
	"Honduras":    true,
	"Nicaragua":   true,
	"Panama":      true,

	// Caribbean
	"Bahamas":             true,
	"Barbados":            true,
	"Cayman Islands":      true,
	"Cuba":                true,
	"Dominican Republic":  true,
	"Haiti":               true,
	"Jamaica":             true,
	"Puerto Rico":         true,
	"Trinidad and Tobago": true,
	"U.S. Virgin Islands": true,

	// South America (partial; most of the continent is 50Hz)
	"Brazil":    true, // both grids exist, 60Hz predominant
	"Colombia":  true,
	"Ecuador":   true,
	"Guyana":    true,
	"Peru":      true,
	"Suriname":  true,
	"Venezuela": true,

	// Asia (partial)
	"South Korea":  true,
	"Taiwan":       true,
	"Philippines":  true,
	"Saudi Arabia": true,

	// Pacific
	"Guam":             true,
	"American Samoa":   true,
	"Marshall Islands": true,
	"Micronesia":       true,
	"Palau":            true,
}
