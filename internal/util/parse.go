package util

import (
	"strconv"
	"strings"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseIntParam parses a string to an integer, returning an error if parsing fails
func ParseIntParam(s string) (int, error) {
	return strconv.Atoi(s)
}

// ParsePagination reads page and limit query-style values with bounds.
// Page is 1-based; limit is clamped to [1, maxLimit].
func ParsePagination(pageStr, limitStr string, defaultLimit, maxLimit int) (page, limit, offset int) {
	page = ParseInt(pageStr, 1)
	if page < 1 {
		page = 1
	}
	limit = ParseInt(limitStr, defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = (page - 1) * limit
	return page, limit, offset
}

// ParseTagArray parses a comma-separated string of tags into a slice,
// trimming whitespace and dropping empties
func ParseTagArray(s string) []string {
	if s == "" {
		return []string{}
	}
	if strings.Contains(s, ",") {
		tags := strings.Split(s, ",")
		result := make([]string, 0, len(tags))
		for _, t := range tags {
			t = strings.TrimSpace(t)
			if t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return []string{strings.TrimSpace(s)}
}
