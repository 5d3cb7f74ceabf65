package calendar

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)(?::([0-5]\d))?$`)
	hhmmRe      = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// TimeOfDay is a wall-clock time within a single day.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS with HH in 00..23 and MM/SS in 00..59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := timeOfDayRe.FindStringSubmatch(s)
	if m == nil {
		return TimeOfDay{}, fmt.Errorf("time %q must be HH:MM or HH:MM:SS", s)
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	sec := 0
	if m[3] != "" {
		sec, _ = strconv.Atoi(m[3])
	}
	return TimeOfDay{Hour: h, Minute: mi, Second: sec}, nil
}

// NormalizeTime expands HH:MM to HH:MM:SS and validates both forms.
func NormalizeTime(s string) (string, error) {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

// FromMinutes converts minutes since midnight; m must fall within the day.
func FromMinutes(m int) (TimeOfDay, error) {
	if m < 0 || m >= 24*60 {
		return TimeOfDay{}, fmt.Errorf("minute offset %d is outside the day", m)
	}
	return TimeOfDay{Hour: m / 60, Minute: m % 60}, nil
}

// FormatMinutes renders minutes since midnight as HH:MM without range checks.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// IsHHMM is the shape check applied before persisting a relocation.
func IsHHMM(s string) bool {
	return hhmmRe.MatchString(s)
}

func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) Seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) HHMM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}
