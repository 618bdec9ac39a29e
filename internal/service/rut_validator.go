package service

import (
	"regexp"
	"strconv"
	"strings"
)

var rutPattern = regexp.MustCompile(`^(\d{7,8})-([\dK])$`)

// NormalizeRUT strips dots and spaces and upper-cases the check digit.
func NormalizeRUT(rut string) string {
	rut = strings.ReplaceAll(strings.ReplaceAll(rut, ".", ""), " ", "")
	return strings.ToUpper(rut)
}

// ValidRUT reports whether rut has the NNNNNNN-D or NNNNNNNN-D form and a correct
// mod-11 check digit.
func ValidRUT(rut string) bool {
	m := rutPattern.FindStringSubmatch(NormalizeRUT(rut))
	if m == nil {
		return false
	}
	return rutCheckDigit(m[1]) == m[2]
}

// rutCheckDigit computes the check digit for the numeric body of a RUT.
func rutCheckDigit(body string) string {
	sum := 0
	multiplier := 2

	// Process from right to left
	for i := len(body) - 1; i >= 0; i-- {
		digit, err := strconv.Atoi(string(body[i]))
		if err != nil {
			return ""
		}
		sum += digit * multiplier
		multiplier++
		if multiplier > 7 {
			multiplier = 2
		}
	}

	switch r := 11 - sum%11; r {
	case 11:
		return "0"
	case 10:
		return "K"
	default:
		return strconv.Itoa(r)
	}
}
