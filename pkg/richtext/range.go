package richtext

import (
	"fmt"

	"rtfdclip/pkg/errors"
)

// Range selects length units starting at location. Immutable value.
type Range struct {
	location int
	length   int
}

// NewRange returns the range of length units starting at location. It is
// not checked until Validate.
func NewRange(location, length int) Range {
	return Range{location: location, length: length}
}

// FullRange covers all of d.
func FullRange(d *Document) Range {
	return Range{length: d.Len()}
}

// Location is the offset of the first unit.
func (r Range) Location() int { return r.location }

// Length is the number of units covered.
func (r Range) Length() int { return r.length }

// End is the offset one past the last unit.
func (r Range) End() int { return r.location + r.length }

// Validate checks 0 <= location, 0 <= length and location+length <= docLen.
func (r Range) Validate(docLen int) error {
	if r.location < 0 || r.length < 0 || r.location > docLen || r.length > docLen-r.location {
		return errors.RangeError(r.location, r.length, docLen)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("{%d, %d}", r.location, r.length)
}
