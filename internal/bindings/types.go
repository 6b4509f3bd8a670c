// Package bindings holds the raw cgo surface to the native kadm5
// administration library. Everything in here deals in plain Go values;
// no C type ever escapes this package. The package is compiled in one of
// several flavors selected by build tags: MIT client (default), MIT
// server (kadm5_server), Heimdal client/server (kadm5_heimdal, optionally
// combined with kadm5_server), or a stub when cgo is unavailable.
//
// None of the functions in this package are safe for concurrent use on
// the same Handle. The kadm5 library binds a session to the thread that
// opened it; callers must confine each Handle to a single OS thread for
// its entire lifetime.
package bindings

import (
	"errors"
	"fmt"
	"unsafe"
)

// Timestamp is a krb5_timestamp: seconds since the Unix epoch, zero
// meaning "not set".
type Timestamp = int32

// DeltaT is a krb5_deltat: an interval in seconds, zero meaning "not set".
type DeltaT = int32

// APIVersion is the kadm5 API version these bindings were generated
// against (KADM5_API_VERSION_2).
const APIVersion = 2

// Capabilities reports which native library flavor was compiled into the
// binary and the kadm5 API version its headers declared.
type Capabilities struct {
	MitClient     bool
	MitServer     bool
	HeimdalClient bool
	HeimdalServer bool

	// LibraryAPIVersion is the version declared by the linked library's
	// headers. Zero when no library was linked.
	LibraryAPIVersion int
}

var caps Capabilities

// Probe reports the capabilities of the linked native library. The
// result is fixed at build time and never changes within a process.
func Probe() Capabilities { return caps }

// Handle is an opened kadm5 session. It owns both the krb5 context and
// the kadm5 server handle, which are destroyed together by Close.
type Handle struct {
	ctx unsafe.Pointer // krb5_context
	srv unsafe.Pointer // kadm5 server handle
}

// KeyMode selects how a newly created principal's keys are established.
type KeyMode int

const (
	// KeyRandom generates a random key (create with a throwaway
	// password, then randomize).
	KeyRandom KeyMode = iota
	// KeyPassword derives keys from a caller-supplied password.
	KeyPassword
	// KeyNone leaves the principal without keys.
	KeyNone
)

// Params carries optional kadm5_config_params overrides. Zero values
// leave the corresponding parameter unset; Mask records which fields are
// meaningful, using the KADM5_CONFIG_* bits.
type Params struct {
	Mask        int64
	Realm       string
	AdminServer string
	KadmindPort int
	KpasswdPort int
}

// kadm5_config_params mask bits.
const (
	ParamRealm       = 0x00000001
	ParamKadmindPort = 0x00004000
	ParamAdminServer = 0x00010000
	ParamKpasswdPort = 0x00080000
)

// PrincipalEnt mirrors kadm5_principal_ent_t with native scalars already
// widened to Go types and all C strings converted.
type PrincipalEnt struct {
	Name             string
	ExpireTime       Timestamp
	LastPwdChange    Timestamp
	PwExpiration     Timestamp
	MaxLife          DeltaT
	ModName          string
	ModDate          Timestamp
	Attributes       int32
	Kvno             uint32
	Mkvno            uint32
	Policy           string // empty when no policy is attached
	AuxAttributes    int64
	MaxRenewableLife DeltaT
	LastSuccess      Timestamp
	LastFailed       Timestamp
	FailAuthCount    uint32
	TlData           []TlDataEnt
	KeyData          []KeyDataEnt
}

// PolicyEnt mirrors kadm5_policy_ent_t.
type PolicyEnt struct {
	Name              string
	PwMinLife         int64
	PwMaxLife         int64
	PwMinLength       int64
	PwMinClasses      int64
	PwHistoryNum      int64
	PolicyRefcnt      int64
	PwMaxFail         uint32
	PwFailcntInterval DeltaT
	PwLockoutDuration DeltaT
	Attributes        int32
	MaxLife           DeltaT
	MaxRenewableLife  DeltaT
}

// KeySalt is one enctype/salttype tuple, as consumed by the keyed
// variants of the key-change calls.
type KeySalt struct {
	Enctype  int32
	SaltType int32
}

// TlDataEnt is one tagged-data entry attached to a principal.
type TlDataEnt struct {
	Type     int16
	Contents []byte
}

// KeyDataEnt is one key data entry as returned by kadm5_get_principal
// with the KADM5_KEY_DATA mask.
type KeyDataEnt struct {
	Kvno     uint32
	Enctype  int32
	Key      []byte
	SaltType int32
	Salt     []byte
}

var (
	// ErrNotBuilt reports that no native kadm5 flavor was linked into
	// the current binary (cgo disabled or unsupported platform).
	ErrNotBuilt = errors.New("kadmin/internal/bindings: native kadm5 library not built")

	// ErrNullPointer reports that the native library handed back a NULL
	// pointer where a value was required.
	ErrNullPointer = errors.New("kadmin/internal/bindings: unexpected NULL pointer from native library")

	// ErrInvalidCString reports that a C string crossing the boundary
	// was not valid UTF-8.
	ErrInvalidCString = errors.New("kadmin/internal/bindings: C string is not valid UTF-8")

	// ErrInteriorNul reports that a Go string destined for the native
	// library contained an interior NUL byte.
	ErrInteriorNul = errors.New("kadmin/internal/bindings: string contains interior NUL byte")

	// ErrUnknownPrincipal and ErrUnknownPolicy are returned by the Get
	// calls for absent entries so callers can distinguish "not found"
	// from a protocol failure.
	ErrUnknownPrincipal = errors.New("kadmin/internal/bindings: principal does not exist")
	ErrUnknownPolicy    = errors.New("kadmin/internal/bindings: policy does not exist")
)

// KAdmError is a nonzero kadm5_ret_t from an administration call.
type KAdmError struct {
	Code int64
}

func (e *KAdmError) Error() string {
	return fmt.Sprintf("kadm5 call failed (code %d)", e.Code)
}

// KrbError is a nonzero krb5_error_code, paired with the message the
// library produced via krb5_get_error_message.
type KrbError struct {
	Code    int32
	Message string
}

func (e *KrbError) Error() string {
	return fmt.Sprintf("krb5 call failed: %s (code %d)", e.Message, e.Code)
}
