package kadm5

import (
	"fmt"
	"sync"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// Variant identifies which native kadm5 flavor this process is linked
// against. Exactly one variant is active per process; it is fixed at
// load time and never changes.
type Variant int

const (
	// VariantUnknown means no native library was detected.
	VariantUnknown Variant = iota
	// MitClient talks to kadmind through the MIT client library.
	MitClient
	// MitServer manipulates the realm database directly through the MIT
	// server library.
	MitServer
	// HeimdalClient talks to kadmind through the Heimdal client library.
	HeimdalClient
	// HeimdalServer manipulates the realm database directly through the
	// Heimdal server library.
	HeimdalServer
)

func (v Variant) String() string {
	switch v {
	case MitClient:
		return "mit-client"
	case MitServer:
		return "mit-server"
	case HeimdalClient:
		return "heimdal-client"
	case HeimdalServer:
		return "heimdal-server"
	default:
		return "unknown"
	}
}

// IsMit reports whether the variant is an MIT flavor.
func (v Variant) IsMit() bool { return v == MitClient || v == MitServer }

// IsHeimdal reports whether the variant is a Heimdal flavor.
func (v Variant) IsHeimdal() bool { return v == HeimdalClient || v == HeimdalServer }

// IsServer reports whether the variant has direct database access.
func (v Variant) IsServer() bool { return v == MitServer || v == HeimdalServer }

var resolveVariant = sync.OnceValues(func() (Variant, error) {
	return variantFromCaps(bindings.Probe())
})

// ResolveVariant determines which native backend variant is present.
// The probe runs once; the result is cached for the life of the
// process. It fails with ErrLibraryLoad when no variant's symbols were
// linked in, and with a LibraryMismatchError when the linked library
// declares an API version other than the one the bindings target.
func ResolveVariant() (Variant, error) {
	return resolveVariant()
}

// ActiveVariant is a capability query: it returns the resolved variant
// and true, or zero and false when no usable backend is present.
func ActiveVariant() (Variant, bool) {
	v, err := resolveVariant()
	if err != nil {
		return VariantUnknown, false
	}
	return v, true
}

func variantFromCaps(caps bindings.Capabilities) (Variant, error) {
	var (
		active Variant
		n      int
	)
	for _, c := range []struct {
		present bool
		variant Variant
	}{
		{caps.MitClient, MitClient},
		{caps.MitServer, MitServer},
		{caps.HeimdalClient, HeimdalClient},
		{caps.HeimdalServer, HeimdalServer},
	} {
		if c.present {
			active = c.variant
			n++
		}
	}
	if n == 0 {
		return VariantUnknown, fmt.Errorf("%w: no kadm5 flavor linked into this binary", ErrLibraryLoad)
	}
	if n > 1 {
		return VariantUnknown, &LibraryMismatchError{
			Detail: "multiple kadm5 flavors report as present",
		}
	}
	if caps.LibraryAPIVersion != bindings.APIVersion {
		return VariantUnknown, &LibraryMismatchError{
			Detail: fmt.Sprintf("library declares kadm5 API version %d, bindings target version %d",
				caps.LibraryAPIVersion, bindings.APIVersion),
		}
	}
	return active, nil
}
