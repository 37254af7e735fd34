package utils

import (
	"sync"
	"time"
)

// ReferenceTimeZone is the civil time zone every stored chat timestamp is
// shifted to before the offset is stripped. Stored values are zone-naive.
const ReferenceTimeZone = "America/Bogota"

var (
	refLocOnce sync.Once
	refLoc     *time.Location
)

func referenceLocation() *time.Location {
	refLocOnce.Do(func() {
		loc, err := time.LoadLocation(ReferenceTimeZone)
		if err != nil {
			// Bogota does not observe DST, the fixed offset is equivalent.
			loc = time.FixedZone("-05", -5*60*60)
		}
		refLoc = loc
	})
	return refLoc
}

// NormalizeSentTime converts t to the reference time zone and strips the
// offset, returning the wall-clock value rebuilt in UTC so the driver
// stores it as a plain DATETIME. Sub-second precision is dropped to match
// the stored column. A nil t substitutes the current time.
func NormalizeSentTime(t *time.Time) time.Time {
	v := time.Now()
	if t != nil {
		v = *t
	}
	local := v.In(referenceLocation())
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), 0, time.UTC)
}
