package ffprobe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRational is returned for anything other than "int/int" with a
// non-zero denominator.
var ErrInvalidRational = errors.New("invalid rational")

// Rational is an exact fraction as printed by ffprobe (e.g. 30000/1001).
type Rational struct {
	Num int64
	Den int64
}

// ParseRational accepts only "<integer>/<integer>" with a positive denominator.
func ParseRational(value string) (Rational, error) {
	value = strings.TrimSpace(value)
	numText, denText, ok := strings.Cut(value, "/")
	if !ok {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidRational, value)
	}
	num, err := strconv.ParseInt(numText, 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidRational, value)
	}
	den, err := strconv.ParseInt(denText, 10, 64)
	if err != nil || den <= 0 {
		return Rational{}, fmt.Errorf("%w: %q", ErrInvalidRational, value)
	}
	return Rational{Num: num, Den: den}, nil
}

// Float returns the value as a float64.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Floor returns the integer part, truncated toward zero.
func (r Rational) Floor() int64 {
	if r.Den == 0 {
		return 0
	}
	return r.Num / r.Den
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
