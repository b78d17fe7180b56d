// Copyright 2025 NetApp, Inc. All Rights Reserved.

package capacity

import (
	"fmt"
	"math"
	"math/bits"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	OneGiB = uint64(1073741824)
)

// binaryShorthand lists the single-letter suffixes that mean binary units, e.g. "4k" is 4096 bytes.
var binaryShorthand = []string{"k", "m", "g", "t", "p", "e"}

// ToBytes converts a size such as "512", "10GiB", "1gb" or "4k" to bytes.  A bare single-letter suffix is treated
// as a binary unit; "kb", "mb", "gb"... are SI units.
func ToBytes(s string) (uint64, error) {
	size := strings.TrimSpace(strings.ToLower(s))
	if size == "" {
		return 0, fmt.Errorf("invalid size value '%s'", s)
	}

	for _, unit := range binaryShorthand {
		if strings.HasSuffix(size, unit) {
			size += "i"
			break
		}
	}

	bytes, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size value '%s': %v", s, err)
	}
	return bytes, nil
}

// mulDiv returns floor(a*b/c) without intermediate overflow.  The caller guarantees the quotient fits in 64 bits.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, c)
	return q
}

// AvailablePercent returns the whole-number percentage of total that is available, rounded down.  A share with
// no total size has no meaningful percentage, so it reports 0 and false.
func AvailablePercent(total, available uint64) (int, bool) {
	if total == 0 {
		return 0, false
	}
	if available > total {
		available = total
	}
	return int(mulDiv(available, 100, total)), true
}

// BytesToFree returns how many bytes must be released so that available space reaches stopPercent of total.
// The result is zero or negative when the share already meets the target.
func BytesToFree(total, available uint64, stopPercent int) int64 {
	if stopPercent < 0 {
		stopPercent = 0
	}
	if stopPercent > 100 {
		stopPercent = 100
	}
	target := mulDiv(total, uint64(stopPercent), 100)

	if target >= available {
		diff := target - available
		if diff > math.MaxInt64 {
			return math.MaxInt64
		}
		return int64(diff)
	}
	diff := available - target
	if diff > math.MaxInt64 {
		return math.MinInt64
	}
	return -int64(diff)
}

// BytesToGiB converts bytes to GiB, rounded down to two decimal places.
func BytesToGiB(bytes uint64) float64 {
	return math.Floor(float64(bytes)/float64(OneGiB)*100) / 100
}

// HumanReadable formats bytes with binary units, e.g. "1.5 GiB".
func HumanReadable(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// HumanReadableSigned formats a possibly negative byte count with binary units.
func HumanReadableSigned(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}
