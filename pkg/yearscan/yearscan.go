// Package yearscan extracts year tokens from text. Ingestion and query-time
// filtering both use it, so a chunk's stored year set and a query's years are
// always derived by the same rules.
package yearscan

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// yearRangeRe matches Indian financial year notation: "2013-14" or
	// "2013-2014" (also the en-dash variant seen in OCR output).
	yearRangeRe = regexp.MustCompile(`(20\d{2})[-–](20\d{2}|\d{2})`)

	yearRe = regexp.MustCompile(`\b(20\d{2})\b`)
)

// Extract returns the sorted, de-duplicated years found in text.
// "2013-14" yields both 2013 and 2014.
func Extract(text string) []int {
	found := make(map[int]struct{})

	for _, match := range yearRangeRe.FindAllStringSubmatch(text, -1) {
		start, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		found[start] = struct{}{}

		suffix := match[2]
		if len(suffix) == 2 {
			suffix = match[1][:2] + suffix
		}
		if end, err := strconv.Atoi(suffix); err == nil {
			found[end] = struct{}{}
		}
	}

	for _, match := range yearRe.FindAllStringSubmatch(text, -1) {
		if year, err := strconv.Atoi(match[1]); err == nil {
			found[year] = struct{}{}
		}
	}

	years := make([]int, 0, len(found))
	for year := range found {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// Format joins years into the comma-separated form stored on a chunk.
func Format(years []int) string {
	if len(years) == 0 {
		return ""
	}
	parts := make([]string, len(years))
	for i, year := range years {
		parts[i] = strconv.Itoa(year)
	}
	return strings.Join(parts, ",")
}

// Parse is the inverse of Format. Malformed entries are dropped.
func Parse(joined string) []int {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	years := make([]int, 0, len(parts))
	for _, part := range parts {
		if year, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			years = append(years, year)
		}
	}
	return years
}

// Intersects reports whether the two year sets share at least one year.
func Intersects(a, b []int) bool {
	set := make(map[int]struct{}, len(a))
	for _, year := range a {
		set[year] = struct{}{}
	}
	for _, year := range b {
		if _, ok := set[year]; ok {
			return true
		}
	}
	return false
}
