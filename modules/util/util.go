package util

import (
	"regexp"
	"strconv"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var legalMatch = regexp.MustCompile("[[:alnum:] _.=,-]") // dash must be LAST! doh

// CleanFilename strips diacritics and anything not filesystem safe, so domain
// names and group names can be used in output file names.
func CleanFilename(input string) string {
	normalized, _, _ := transform.String(transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r) // Mn: nonspacing marks
	}), norm.NFC), input)

	var output string
	for _, chr := range normalized {
		if legalMatch.MatchString(string(chr)) {
			output += string(chr)
		}
	}
	return output
}

func ParseBool(input string, defvalue ...bool) (bool, error) {
	result, err := strconv.ParseBool(input)
	if err == nil {
		return result, err
	}
	switch input {
	case "on", "On":
		return true, nil
	case "off", "Off":
		return false, nil
	}
	if len(defvalue) > 0 && err != nil {
		return defvalue[0], err
	}
	return result, err
}
