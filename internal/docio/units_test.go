package docio

import "testing"

func TestToNanosConvertsEveryUnit(t *testing.T) {
	cases := []struct {
		unit string
		val  float64
		want int64
	}{
		{"", 5, 5},
		{"ns", 5, 5},
		{"us", 5, 5000},
		{"µs", 5, 5000},
		{"ms", 5, 5_000_000},
		{"s", 2, 2_000_000_000},
	}
	for _, c := range cases {
		got, err := toNanos(valueWithUnit{Unit: c.unit, Value: c.val})
		if err != nil {
			t.Fatalf("toNanos(%q, %v): %v", c.unit, c.val, err)
		}
		if got != c.want {
			t.Fatalf("toNanos(%q, %v) = %d, want %d", c.unit, c.val, got, c.want)
		}
	}
}

func TestToNanosRejectsUnknownUnit(t *testing.T) {
	if _, err := toNanos(valueWithUnit{Unit: "fortnight", Value: 1}); err == nil {
		t.Fatal("expected an error for an unknown time unit")
	}
}

func TestToBytesConvertsEveryUnit(t *testing.T) {
	cases := []struct {
		unit string
		val  float64
		want int
	}{
		{"", 10, 10},
		{"Byte", 10, 10},
		{"KByte", 2, 2000},
		{"MByte", 1, 1_000_000},
	}
	for _, c := range cases {
		got, err := toBytes(valueWithUnit{Unit: c.unit, Value: c.val})
		if err != nil {
			t.Fatalf("toBytes(%q, %v): %v", c.unit, c.val, err)
		}
		if got != c.want {
			t.Fatalf("toBytes(%q, %v) = %d, want %d", c.unit, c.val, got, c.want)
		}
	}
}

func TestToBytesRejectsUnknownUnit(t *testing.T) {
	if _, err := toBytes(valueWithUnit{Unit: "furlong", Value: 1}); err == nil {
		t.Fatal("expected an error for an unknown size unit")
	}
}

func TestToMBsConvertsEveryUnit(t *testing.T) {
	cases := []struct {
		unit string
		val  float64
		want float64
	}{
		{"", 10, 10},
		{"MBs", 10, 10},
		{"KBs", 1000, 1},
		{"GBs", 1, 1000},
	}
	for _, c := range cases {
		got, err := toMBs(valueWithUnit{Unit: c.unit, Value: c.val})
		if err != nil {
			t.Fatalf("toMBs(%q, %v): %v", c.unit, c.val, err)
		}
		if got != c.want {
			t.Fatalf("toMBs(%q, %v) = %v, want %v", c.unit, c.val, got, c.want)
		}
	}
}

func TestToMBsRejectsUnknownUnit(t *testing.T) {
	if _, err := toMBs(valueWithUnit{Unit: "mph", Value: 1}); err == nil {
		t.Fatal("expected an error for an unknown speed unit")
	}
}

func TestParseIntTrimsWhitespace(t *testing.T) {
	got, err := parseInt("  42 ")
	if err != nil {
		t.Fatalf("parseInt: %v", err)
	}
	if got != 42 {
		t.Fatalf("parseInt = %d, want 42", got)
	}
}
