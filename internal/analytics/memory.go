package analytics

import (
	"math"
	"strconv"
	"strings"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders a byte count with binary-prefixed units to at most
// two decimal places, trimming trailing zeros: 0 -> "0 B", 1024 -> "1 KB",
// 1536 -> "1.5 KB".
func FormatBytes(bytes int) string {
	if bytes == 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}

	v := float64(bytes) / math.Pow(1024, float64(i))
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s + " " + byteUnits[i]
}
