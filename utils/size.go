package utils

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// FormatSize renders a byte count with a 1024 base (B, KB, MB, GB).
// Values below 10 keep one decimal, a trailing ".0" is dropped.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 0:
		return "-"
	case bytes == 0:
		return "0 B"
	case bytes < kilobyte:
		return fmt.Sprintf("%d B", bytes)
	case bytes < megabyte:
		return formatUnit(float64(bytes)/kilobyte) + " KB"
	case bytes < gigabyte:
		return formatUnit(float64(bytes)/megabyte) + " MB"
	default:
		return formatUnit(float64(bytes)/gigabyte) + " GB"
	}
}

func formatUnit(value float64) string {
	var s string
	if value < 10 {
		s = strconv.FormatFloat(value, 'f', 1, 64)
	} else {
		s = strconv.FormatFloat(value, 'f', 0, 64)
	}
	return strings.TrimSuffix(s, ".0")
}
