// Package id issues monotonically increasing identifiers from a bounded space.
package id

import (
	"fmt"
	"math"
)

// Id is an opaque identifier handed out by a Hander
type Id uint64

// MaxId is the largest representable Id
const MaxId Id = math.MaxUint64

func (i Id) String() string {
	return fmt.Sprintf("Id(%d)", uint64(i))
}
