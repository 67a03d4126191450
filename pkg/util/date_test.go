package util

import (
	"math"
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeMarketLayouts(t *testing.T) {
	want := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-01-01 09:00:00", "2024-01-01 09:00", "2024-01-01T09:00:00"} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("%q: expected ok", s)
		}
		if !got.Equal(want) {
			t.Fatalf("%q: got %v want %v", s, got, want)
		}
	}
	day, ok := ParseTime("2024-01-01")
	if !ok || !day.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date-only layout: got %v ok=%v", day, ok)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeInvalid(t *testing.T) {
	if _, ok := ParseTime("yesterday"); ok {
		t.Fatalf("expected failure")
	}
}

func TestParseFloatOrNaN(t *testing.T) {
	if v := ParseFloatOrNaN(" 101.5 "); v != 101.5 {
		t.Fatalf("unexpected %v", v)
	}
	for _, s := range []string{"", "n/a", "Inf"} {
		if v := ParseFloatOrNaN(s); !math.IsNaN(v) {
			t.Fatalf("%q: expected NaN, got %v", s, v)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" IBM, ,MSFT,")
	if len(got) != 2 || got[0] != "IBM" || got[1] != "MSFT" {
		t.Fatalf("unexpected %v", got)
	}
}
