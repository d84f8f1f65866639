package utils

import (
	"fmt"
	"strings"
)

// FormatPrice formats a price with thousands separators and two decimals.
func FormatPrice(price float64) string {
	return "$" + groupThousands(fmt.Sprintf("%.2f", price))
}

// groupThousands inserts commas into the integer part of a fixed-point string.
func groupThousands(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	n := len(intPart)
	if n > 3 {
		var b strings.Builder
		first := n % 3
		if first > 0 {
			b.WriteString(intPart[:first])
		}
		for i := first; i < n; i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	if negative {
		intPart = "-" + intPart
	}
	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}

// FormatPercent formats a percentage with an explicit sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatVolume formats a volume figure in compact form (K/M/B).
func FormatVolume(volume float64) string {
	abs := volume
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.1fB", volume/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", volume/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", volume/1e3)
	default:
		return fmt.Sprintf("%.0f", volume)
	}
}
