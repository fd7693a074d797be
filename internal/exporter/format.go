package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatOptional formats an undefined statistic as an empty cell.
func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}
