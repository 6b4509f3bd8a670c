package kadm5

import (
	"fmt"
	"sort"
	"strings"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// EncryptionType is a Kerberos encryption type code. The named
// constants cover the types current MIT and Heimdal libraries ship;
// unknown codes are preserved as-is when read from the library but
// cannot be produced from a string.
type EncryptionType int32

const (
	Des3CbcRaw             EncryptionType = 6
	Des3CbcSha1            EncryptionType = 16
	Aes128CtsHmacSha196    EncryptionType = 17
	Aes256CtsHmacSha196    EncryptionType = 18
	Aes128CtsHmacSha256128 EncryptionType = 19
	Aes256CtsHmacSha384192 EncryptionType = 20
	ArcfourHmac            EncryptionType = 23
	ArcfourHmacExp         EncryptionType = 24
	Camellia128CtsCmac     EncryptionType = 25
	Camellia256CtsCmac     EncryptionType = 26
)

// Canonical names, as krb5_enctype_to_string renders them.
var enctypeNames = map[EncryptionType]string{
	Des3CbcRaw:             "des3-cbc-raw",
	Des3CbcSha1:            "des3-cbc-sha1",
	Aes128CtsHmacSha196:    "aes128-cts-hmac-sha1-96",
	Aes256CtsHmacSha196:    "aes256-cts-hmac-sha1-96",
	Aes128CtsHmacSha256128: "aes128-cts-hmac-sha256-128",
	Aes256CtsHmacSha384192: "aes256-cts-hmac-sha384-192",
	ArcfourHmac:            "arcfour-hmac",
	ArcfourHmacExp:         "arcfour-hmac-exp",
	Camellia128CtsCmac:     "camellia128-cts-cmac",
	Camellia256CtsCmac:     "camellia256-cts-cmac",
}

// Accepted spellings, including the aliases krb5_string_to_enctype
// knows about.
var enctypeByName = map[string]EncryptionType{
	"des3-cbc-raw":               Des3CbcRaw,
	"des3-cbc-sha1":              Des3CbcSha1,
	"des3-cbc-sha1-kd":           Des3CbcSha1,
	"des3-hmac-sha1":             Des3CbcSha1,
	"aes128-cts-hmac-sha1-96":    Aes128CtsHmacSha196,
	"aes128-cts":                 Aes128CtsHmacSha196,
	"aes128-sha1":                Aes128CtsHmacSha196,
	"aes256-cts-hmac-sha1-96":    Aes256CtsHmacSha196,
	"aes256-cts":                 Aes256CtsHmacSha196,
	"aes256-sha1":                Aes256CtsHmacSha196,
	"aes128-cts-hmac-sha256-128": Aes128CtsHmacSha256128,
	"aes128-sha2":                Aes128CtsHmacSha256128,
	"aes256-cts-hmac-sha384-192": Aes256CtsHmacSha384192,
	"aes256-sha2":                Aes256CtsHmacSha384192,
	"arcfour-hmac":               ArcfourHmac,
	"rc4-hmac":                   ArcfourHmac,
	"arcfour-hmac-md5":           ArcfourHmac,
	"arcfour-hmac-exp":           ArcfourHmacExp,
	"rc4-hmac-exp":               ArcfourHmacExp,
	"arcfour-hmac-md5-exp":       ArcfourHmacExp,
	"camellia128-cts-cmac":       Camellia128CtsCmac,
	"camellia128-cts":            Camellia128CtsCmac,
	"camellia256-cts-cmac":       Camellia256CtsCmac,
	"camellia256-cts":            Camellia256CtsCmac,
}

// ParseEncryptionType resolves an encryption type name or alias. It
// fails with ErrEncryptionTypeConversion for unrecognized names.
func ParseEncryptionType(s string) (EncryptionType, error) {
	if et, ok := enctypeByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return et, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrEncryptionTypeConversion, s)
}

func (et EncryptionType) String() string {
	if name, ok := enctypeNames[et]; ok {
		return name
	}
	return fmt.Sprintf("enctype(%d)", int32(et))
}

// Name returns the canonical name, failing with
// ErrEncryptionTypeConversion when the code has none.
func (et EncryptionType) Name() (string, error) {
	if name, ok := enctypeNames[et]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: code %d", ErrEncryptionTypeConversion, int32(et))
}

// SaltType is a Kerberos salt type code. The zero value is the normal
// (default) salt.
type SaltType int32

const (
	SaltNormal    SaltType = 0
	SaltV4        SaltType = 1
	SaltNoRealm   SaltType = 2
	SaltOnlyRealm SaltType = 3
	SaltAfs3      SaltType = 4
	SaltSpecial   SaltType = 5
)

var salttypeNames = map[SaltType]string{
	SaltNormal:    "normal",
	SaltV4:        "v4",
	SaltNoRealm:   "norealm",
	SaltOnlyRealm: "onlyrealm",
	SaltAfs3:      "afs3",
	SaltSpecial:   "special",
}

var salttypeByName = map[string]SaltType{
	"normal":    SaltNormal,
	"v4":        SaltV4,
	"norealm":   SaltNoRealm,
	"onlyrealm": SaltOnlyRealm,
	"afs3":      SaltAfs3,
	"special":   SaltSpecial,
}

// ParseSaltType resolves a salt type name. The empty string means the
// normal salt, matching kadmin's keysalt list syntax. Unrecognized
// names fail with ErrSaltTypeConversion.
func ParseSaltType(s string) (SaltType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SaltNormal, nil
	}
	if st, ok := salttypeByName[s]; ok {
		return st, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrSaltTypeConversion, s)
}

func (st SaltType) String() string {
	if name, ok := salttypeNames[st]; ok {
		return name
	}
	return fmt.Sprintf("salttype(%d)", int32(st))
}

// Name returns the canonical name, failing with ErrSaltTypeConversion
// when the code has none.
func (st SaltType) Name() (string, error) {
	if name, ok := salttypeNames[st]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: code %d", ErrSaltTypeConversion, int32(st))
}

// KeySalt pairs an encryption type with a salt type.
type KeySalt struct {
	EncryptionType EncryptionType
	SaltType       SaltType
}

func (ks KeySalt) String() string {
	return ks.EncryptionType.String() + ":" + ks.SaltType.String()
}

// KeySalts is a set of keysalt tuples, as used for key generation.
type KeySalts struct {
	KeySalts map[KeySalt]struct{}
}

// NewKeySalts builds a set from the given tuples.
func NewKeySalts(keysalts ...KeySalt) *KeySalts {
	set := make(map[KeySalt]struct{}, len(keysalts))
	for _, ks := range keysalts {
		set[ks] = struct{}{}
	}
	return &KeySalts{KeySalts: set}
}

// ParseKeySalts parses a keysalt list in the kadmin syntax: tuples
// separated by comma, space, or tab, each "enctype" or
// "enctype:salttype".
func ParseKeySalts(s string) (*KeySalts, error) {
	set := make(map[KeySalt]struct{})
	for _, field := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		encName, saltName, _ := strings.Cut(field, ":")
		et, err := ParseEncryptionType(encName)
		if err != nil {
			return nil, err
		}
		st, err := ParseSaltType(saltName)
		if err != nil {
			return nil, err
		}
		set[KeySalt{EncryptionType: et, SaltType: st}] = struct{}{}
	}
	return &KeySalts{KeySalts: set}, nil
}

// raw flattens the set for the bindings layer, sorted for stable
// ordering across calls. A nil or empty set yields nil, meaning the
// realm's default keysalts.
func (ksl *KeySalts) raw() []bindings.KeySalt {
	if ksl == nil || len(ksl.KeySalts) == 0 {
		return nil
	}
	out := make([]bindings.KeySalt, 0, len(ksl.KeySalts))
	for ks := range ksl.KeySalts {
		out = append(out, bindings.KeySalt{
			Enctype:  int32(ks.EncryptionType),
			SaltType: int32(ks.SaltType),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Enctype != out[j].Enctype {
			return out[i].Enctype < out[j].Enctype
		}
		return out[i].SaltType < out[j].SaltType
	})
	return out
}

// String renders the set in the kadmin keysalt list syntax, sorted for
// stable output.
func (ksl *KeySalts) String() string {
	parts := make([]string, 0, len(ksl.KeySalts))
	for ks := range ksl.KeySalts {
		parts = append(parts, ks.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
