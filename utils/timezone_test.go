package utils

import (
	"testing"
	"time"
)

func TestNormalizeSentTimeShiftsToBogotaAndStripsOffset(t *testing.T) {
	in := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	got := NormalizeSentTime(&in)

	// Bogotá is UTC-5 year-round; the stored value is the local wall
	// clock rebuilt without an offset, sub-second precision dropped.
	want := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Fatalf("normalized time still carries a zone: %v", got.Location())
	}
}

func TestNormalizeSentTimeKeepsAlreadyLocalWallClock(t *testing.T) {
	loc, err := time.LoadLocation(ReferenceTimeZone)
	if err != nil {
		t.Skipf("zone database unavailable: %v", err)
	}
	in := time.Date(2024, 12, 24, 20, 30, 15, 0, loc)
	got := NormalizeSentTime(&in)

	want := time.Date(2024, 12, 24, 20, 30, 15, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalizeSentTimeNilSubstitutesNow(t *testing.T) {
	before := time.Now()
	got := NormalizeSentTime(nil)
	after := time.Now()

	lo := NormalizeSentTime(&before).Add(-time.Second)
	hi := NormalizeSentTime(&after).Add(time.Second)
	if got.Before(lo) || got.After(hi) {
		t.Fatalf("nil input did not substitute the current time: %v not in [%v, %v]", got, lo, hi)
	}
}
