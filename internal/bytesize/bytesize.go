// Package bytesize parses and formats human-readable byte quantities used in
// configuration files ("64KiB", "1MiB", "4096").
package bytesize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// ByteSize is a size in bytes.
//
// Accepted input forms:
//   - Plain numbers: 1024
//   - Binary units (×1024): Ki/KiB, Mi/MiB, Gi/GiB
//   - Decimal units (×1000): K/KB, M/MB, G/GB
//   - Bytes: B
//
// Units are case-insensitive and may be separated from the number by spaces.
type ByteSize uint64

// Common byte size constants
const (
	B  ByteSize = 1
	KB ByteSize = 1000
	MB ByteSize = 1000 * KB
	GB ByteSize = 1000 * MB

	KiB ByteSize = 1024
	MiB ByteSize = 1024 * KiB
	GiB ByteSize = 1024 * MiB
)

var byteSizePattern = regexp.MustCompile(`(?i)^\s*(\d+(?:\.\d+)?)\s*([a-z]*)\s*$`)

var unitMultipliers = map[string]ByteSize{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
}

// exactUnits is the order Format tries when looking for a lossless unit.
var exactUnits = []struct {
	size   ByteSize
	suffix string
}{
	{GiB, "GiB"},
	{MiB, "MiB"},
	{KiB, "KiB"},
}

// ParseByteSize parses a human-readable byte size such as "64KiB" or "1.5MB".
// Fractional results are truncated to whole bytes.
func ParseByteSize(s string) (ByteSize, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	matches := byteSizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid byte size format: %q", s)
	}

	multiplier, ok := unitMultipliers[strings.ToLower(matches[2])]
	if !ok {
		return 0, fmt.Errorf("unknown byte size unit: %q", matches[2])
	}

	if !strings.Contains(matches[1], ".") {
		num, err := strconv.ParseUint(matches[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number in byte size: %q", matches[1])
		}
		if num > math.MaxUint64/uint64(multiplier) {
			return 0, fmt.Errorf("byte size overflows: %q", s)
		}
		return ByteSize(num) * multiplier, nil
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in byte size: %q", matches[1])
	}
	total := num * float64(multiplier)
	if total >= math.MaxUint64 {
		return 0, fmt.Errorf("byte size overflows: %q", s)
	}
	return ByteSize(total), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, which lets the
// mapstructure text hook and yaml.v3 decode ByteSize fields directly.
func (b *ByteSize) UnmarshalText(text []byte) error {
	size, err := ParseByteSize(string(text))
	if err != nil {
		return err
	}
	*b = size
	return nil
}

// MarshalText implements encoding.TextMarshaler using the lossless Format form.
func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(b.Format()), nil
}

// Format returns the largest binary unit that represents b exactly,
// e.g. "4KiB", "1MiB" or "1500B". ParseByteSize(b.Format()) == b.
func (b ByteSize) Format() string {
	if b == 0 {
		return "0B"
	}
	for _, u := range exactUnits {
		if b%u.size == 0 {
			return fmt.Sprintf("%d%s", b/u.size, u.suffix)
		}
	}
	return fmt.Sprintf("%dB", uint64(b))
}

// String returns an approximate human-readable representation for display.
func (b ByteSize) String() string {
	switch {
	case b >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(b)/float64(GiB))
	case b >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(b)/float64(MiB))
	case b >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(b)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", uint64(b))
	}
}

// Int returns b as an int, saturating at math.MaxInt.
func (b ByteSize) Int() int {
	if uint64(b) > math.MaxInt {
		return math.MaxInt
	}
	return int(b)
}

// Uint64 returns b as a uint64.
func (b ByteSize) Uint64() uint64 {
	return uint64(b)
}

// JSONSchema describes ByteSize as a string or integer in generated schemas.
func (ByteSize) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Pattern: `^\s*\d+(\.\d+)?\s*([KkMmGg][Ii]?[Bb]?|[Bb])?\s*$`},
			{Type: "integer", Minimum: "0"},
		},
		Description: `Byte size, e.g. "4096", "64KiB", "1MiB"`,
	}
}
