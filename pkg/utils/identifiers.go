package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var accessionRe = regexp.MustCompile(`\d{10}-\d{2}-\d{6}`)

// NormalizeCIK strips non-digits and leading zeros from a CIK.
// An all-zero CIK is returned as its digits; no digits yields "".
func NormalizeCIK(cik string) string {
	var b strings.Builder
	for _, r := range cik {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if trimmed := strings.TrimLeft(digits, "0"); trimmed != "" {
		return trimmed
	}
	return digits
}

// PadCIK pads a CIK number to 10 digits with leading zeros.
func PadCIK(cik string) string {
	cik = NormalizeCIK(cik)
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

// AccessionNoDashes removes the dash separators of an accession number.
func AccessionNoDashes(accession string) string {
	return strings.ReplaceAll(strings.TrimSpace(accession), "-", "")
}

// FormatAccession converts an accession number to the dashed
// ##########-##-###### form. Both dashed and 18-digit inputs are accepted.
func FormatAccession(accession string) (string, error) {
	digits := AccessionNoDashes(accession)
	if len(digits) != 18 {
		return "", fmt.Errorf("invalid accession number %q", accession)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("invalid accession number %q", accession)
		}
	}
	return digits[:10] + "-" + digits[10:12] + "-" + digits[12:], nil
}

// FindAccession returns the first dashed accession number found in any of
// the candidates, or "".
func FindAccession(candidates ...string) string {
	for _, c := range candidates {
		if m := accessionRe.FindString(c); m != "" {
			return m
		}
	}
	return ""
}
