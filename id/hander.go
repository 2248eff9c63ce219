package id

import (
	"github.com/cockroachdb/errors"
)

// Hander hands out ids from the inclusive range [start, max] in strictly increasing order. It never
// hands out the same id twice and never takes ids back; running out of ids is a capacity signal that
// the caller interprets.
//
// A Hander is not safe for concurrent use. Process-wide handers are wrapped in a lock by their owner.
type Hander struct {
	next      Id
	max       Id
	exhausted bool
}

// New creates a Hander that hands out ids from zero through max
func New(max Id) *Hander {
	return NewStartingFrom(0, max)
}

// NewStartingFrom creates a Hander that hands out ids from start through max. The caller must
// guarantee start <= max.
func NewStartingFrom(start Id, max Id) *Hander {
	if start > max {
		panic(errors.AssertionFailedf("hander start %d is beyond its max %d", start, max))
	}

	return &Hander{
		next: start,
		max:  max,
	}
}

// PeekNext returns the id the next call to Handout would return, without consuming it. Once the
// Hander is exhausted it keeps returning max.
func (h *Hander) PeekNext() Id {
	return h.next
}

// Max returns the largest id this Hander will ever hand out
func (h *Hander) Max() Id {
	return h.max
}

// Remaining returns the number of ids that can still be handed out, saturating at math.MaxUint64
func (h *Hander) Remaining() uint64 {
	if h.exhausted {
		return 0
	}

	span := uint64(h.max - h.next)
	if span == uint64(MaxId) {
		return span
	}
	return span + 1
}

// Handout returns the next id and advances past it. It returns false once every id up to and
// including max has been handed out.
func (h *Hander) Handout() (Id, bool) {
	return h.HandoutAndSkip(0)
}

// HandoutAndSkip first skips the next skip ids and then hands out the id after them, so the call
// consumes skip+1 ids. It is used to satisfy alignment requirements imposed by the caller's id space.
// If the skip would move past max, nothing is consumed and false is returned.
func (h *Hander) HandoutAndSkip(skip uint64) (Id, bool) {
	if h.exhausted {
		return 0, false
	}

	if skip > uint64(h.max-h.next) {
		return 0, false
	}

	issued := h.next + Id(skip)
	if issued == h.max {
		// Can't advance past max without wrapping, so remember instead
		h.exhausted = true
		h.next = issued
	} else {
		h.next = issued + 1
	}

	return issued, true
}
