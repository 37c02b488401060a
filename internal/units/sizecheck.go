package units

import (
	"fmt"
	"unsafe"

	"github.com/FabianRolfMatthiasNoll/signalgraph/internal/graphcore"
)

// checkStateSize panics at package init time if T would not fit inside a
// Unit's opaque state area. Each concrete unit's state struct registers
// itself with a package-level var initializer (see e.g. phasor.go), which
// is the closest a generic helper gets to spec.md's "assertFits" check
// without abusing unsafe.Sizeof in a const expression.
func checkStateSize[T any]() struct{} {
	if size := unsafe.Sizeof(*new(T)); size > uintptr(graphcore.StateSize) {
		panic(fmt.Sprintf("units: state type exceeds %d-byte budget: %d bytes", graphcore.StateSize, size))
	}
	return struct{}{}
}
