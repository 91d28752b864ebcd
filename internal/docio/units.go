package docio

import (
	"strconv"
	"strings"

	"github.com/signalsfoundry/shsched/internal/schederr"
)

// toNanos converts a time valueWithUnit to nanoseconds. Units: ns, us (µs),
// ms, s.
func toNanos(v valueWithUnit) (int64, error) {
	var factor float64
	switch normalizeUnit(v.Unit) {
	case "", "ns":
		factor = 1
	case "us":
		factor = 1e3
	case "ms":
		factor = 1e6
	case "s":
		factor = 1e9
	default:
		return 0, schederr.New(schederr.InvalidInput, "docio.toNanos", "unknown time unit: "+v.Unit)
	}
	return int64(v.Value * factor), nil
}

// toBytes converts a size valueWithUnit to bytes. Units: Byte, KByte,
// MByte.
func toBytes(v valueWithUnit) (int, error) {
	var factor float64
	switch v.Unit {
	case "", "Byte":
		factor = 1
	case "KByte":
		factor = 1e3
	case "MByte":
		factor = 1e6
	default:
		return 0, schederr.New(schederr.InvalidInput, "docio.toBytes", "unknown size unit: "+v.Unit)
	}
	return int(v.Value * factor), nil
}

// toMBs converts a speed valueWithUnit to MB/s. Units: KBs, MBs, GBs.
func toMBs(v valueWithUnit) (float64, error) {
	switch v.Unit {
	case "", "MBs":
		return v.Value, nil
	case "KBs":
		return v.Value / 1000, nil
	case "GBs":
		return v.Value * 1000, nil
	default:
		return 0, schederr.New(schederr.InvalidInput, "docio.toMBs", "unknown speed unit: "+v.Unit)
	}
}

func normalizeUnit(u string) string {
	u = strings.TrimSpace(u)
	if u == "µs" || u == "us" {
		return "us"
	}
	return u
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
