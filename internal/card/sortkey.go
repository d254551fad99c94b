package card

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRunRE     = regexp.MustCompile(`\d+`)
	letterSuffixRE = regexp.MustCompile(`^\d+([a-z])$`)
)

// SortKey derives a numeric ordering key from a printed collector number.
//
// The first run of digits is the base. A number that is exactly digits plus one
// letter gets the letter's position added in tenths ("101a" is 101.1, "101b" is
// 101.2). Anything else returns the base ("A-19" is 19). Nil means no digits.
func SortKey(collectorNumber string) *float64 {
	s := strings.ToLower(strings.TrimSpace(collectorNumber))
	run := digitRunRE.FindString(s)
	if run == "" {
		return nil
	}
	base, err := strconv.ParseFloat(run, 64)
	if err != nil {
		return nil
	}
	if m := letterSuffixRE.FindStringSubmatch(s); m != nil {
		base += float64(m[1][0]-'a'+1) / 10
	}
	return &base
}
