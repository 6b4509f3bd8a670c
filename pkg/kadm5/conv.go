package kadm5

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// Conversions between native kadm5 representations and Go types. The
// native library stores timestamps as 32-bit seconds since the epoch
// and intervals as 32-bit second counts; zero means unset for both.

// tsToTime converts a native timestamp. A zero timestamp maps to the
// zero time.Time, meaning the field is unset.
func tsToTime(ts bindings.Timestamp) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0).UTC()
}

// timeToTS converts a point in time to a native timestamp. The zero
// time maps to zero. Times outside the representable range fail with
// ErrDateTimeConversion.
func timeToTS(t time.Time) (bindings.Timestamp, error) {
	if t.IsZero() {
		return 0, nil
	}
	if t.Nanosecond() != 0 {
		return 0, fmt.Errorf("%w: %v has sub-second precision", ErrDateTimeConversion, t)
	}
	sec := t.Unix()
	if sec <= 0 || sec > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v", ErrDateTimeConversion, t)
	}
	return bindings.Timestamp(sec), nil
}

// deltaToDur converts a native interval. Zero maps to zero, meaning
// the field is unset.
func deltaToDur(d bindings.DeltaT) (time.Duration, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: negative interval %d", ErrDurationConversion, d)
	}
	return time.Duration(d) * time.Second, nil
}

// durToDelta converts a duration to a native interval. Durations must
// be non-negative, whole seconds, and fit in 32 bits.
func durToDelta(d time.Duration) (bindings.DeltaT, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: negative duration %v", ErrDurationConversion, d)
	}
	if d%time.Second != 0 {
		return 0, fmt.Errorf("%w: %v has sub-second precision", ErrDurationConversion, d)
	}
	sec := int64(d / time.Second)
	if sec > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %v", ErrDurationConversion, d)
	}
	return bindings.DeltaT(sec), nil
}

// importText takes a native byte buffer as a Go string. Buffers with
// interior NUL bytes or invalid UTF-8 cannot round-trip through the C
// API and are rejected.
func importText(b []byte) (string, error) {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		return "", fmt.Errorf("%w: NUL byte at offset %d", ErrCStringImportFromVec, i)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrCStringImportFromVec)
	}
	return string(b), nil
}

// checkName validates a principal or policy name before it crosses
// into the native library.
func checkName(name string) error {
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: name contains NUL byte", ErrStringConversion)
	}
	return nil
}
