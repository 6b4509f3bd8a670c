package kadm5

import (
	"time"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// PrincipalAttributes are the KRB5_KDB flag bits set on a principal.
// See kadmin(1), add_principal, for what each one does.
type PrincipalAttributes int32

const (
	DisallowPostdated    PrincipalAttributes = 0x00000001
	DisallowForwardable  PrincipalAttributes = 0x00000002
	DisallowTgtBased     PrincipalAttributes = 0x00000004
	DisallowRenewable    PrincipalAttributes = 0x00000008
	DisallowProxiable    PrincipalAttributes = 0x00000010
	DisallowDupSkey      PrincipalAttributes = 0x00000020
	DisallowAllTix       PrincipalAttributes = 0x00000040
	RequiresPreAuth      PrincipalAttributes = 0x00000080
	RequiresHwAuth       PrincipalAttributes = 0x00000100
	RequiresPwChange     PrincipalAttributes = 0x00000200
	DisallowSvr          PrincipalAttributes = 0x00001000
	PwChangeService      PrincipalAttributes = 0x00002000
	SupportDesMd5        PrincipalAttributes = 0x00004000
	NewPrinc             PrincipalAttributes = 0x00008000
	OkAsDelegate         PrincipalAttributes = 0x00100000
	OkToAuthAsDelegate   PrincipalAttributes = 0x00200000
	NoAuthDataRequired   PrincipalAttributes = 0x00400000
	LockdownKeys         PrincipalAttributes = 0x00800000
)

// Has reports whether all bits in flag are set.
func (a PrincipalAttributes) Has(flag PrincipalAttributes) bool { return a&flag == flag }

// kadm5 field mask bits, shared by create and modify.
const (
	maskPrincipal       int64 = 0x000001
	maskPrincExpireTime int64 = 0x000002
	maskPwExpiration    int64 = 0x000004
	maskAttributes      int64 = 0x000010
	maskMaxLife         int64 = 0x000020
	maskPolicy          int64 = 0x000800
	maskPolicyClr       int64 = 0x001000
	maskMaxRLife        int64 = 0x002000
)

// Principal is a read-only snapshot of a realm entry, taken at the time
// of the lookup. Zero times and durations mean the field is unset.
type Principal struct {
	// Name is the fully qualified principal name, realm included.
	Name string
	// ExpireTime is when the principal itself expires.
	ExpireTime time.Time
	// LastPasswordChange is when the password was last changed.
	LastPasswordChange time.Time
	// PasswordExpiration is when the password expires.
	PasswordExpiration time.Time
	// MaxLife is the maximum ticket life.
	MaxLife time.Duration
	// ModifiedBy is the principal that last modified this entry.
	ModifiedBy string
	// ModifiedAt is when the entry was last modified.
	ModifiedAt time.Time
	// Attributes are the KRB5_KDB flag bits.
	Attributes PrincipalAttributes
	// Kvno is the current key version number.
	Kvno uint32
	// Mkvno is the master key version number used to encrypt the keys.
	Mkvno uint32
	// Policy is the attached password policy name, empty when none.
	Policy string
	// AuxAttributes are the KADM5_POLICY lockout bookkeeping bits.
	AuxAttributes int64
	// MaxRenewableLife is the maximum renewable ticket life.
	MaxRenewableLife time.Duration
	// LastSuccess is the last successful authentication, when the KDC
	// records it.
	LastSuccess time.Time
	// LastFailed is the last failed authentication attempt.
	LastFailed time.Time
	// FailAuthCount is the count of failed attempts since last success.
	FailAuthCount uint32
	// TlData holds the entry's tagged data, present when requested.
	TlData []TlData
	// KeyData holds the entry's key data, present when requested and
	// permitted.
	KeyData []KeyData
}

func principalFromEnt(ent *bindings.PrincipalEnt) (*Principal, error) {
	maxLife, err := deltaToDur(ent.MaxLife)
	if err != nil {
		return nil, err
	}
	maxRLife, err := deltaToDur(ent.MaxRenewableLife)
	if err != nil {
		return nil, err
	}
	p := &Principal{
		Name:               ent.Name,
		ExpireTime:         tsToTime(ent.ExpireTime),
		LastPasswordChange: tsToTime(ent.LastPwdChange),
		PasswordExpiration: tsToTime(ent.PwExpiration),
		MaxLife:            maxLife,
		ModifiedBy:         ent.ModName,
		ModifiedAt:         tsToTime(ent.ModDate),
		Attributes:         PrincipalAttributes(ent.Attributes),
		Kvno:               ent.Kvno,
		Mkvno:              ent.Mkvno,
		Policy:             ent.Policy,
		AuxAttributes:      ent.AuxAttributes,
		MaxRenewableLife:   maxRLife,
		LastSuccess:        tsToTime(ent.LastSuccess),
		LastFailed:         tsToTime(ent.LastFailed),
		FailAuthCount:      ent.FailAuthCount,
	}
	for _, tl := range ent.TlData {
		p.TlData = append(p.TlData, tlDataFromEnt(tl))
	}
	for _, kd := range ent.KeyData {
		p.KeyData = append(p.KeyData, keyDataFromEnt(kd))
	}
	return p, nil
}

// PrincipalBuilder stages the fields of a principal to create. Only
// fields explicitly set are sent to the library; everything else keeps
// the realm's defaults. The zero time clears a time field.
type PrincipalBuilder struct {
	name             string
	mask             int64
	expireTime       time.Time
	pwExpiration     time.Time
	maxLife          time.Duration
	attributes       PrincipalAttributes
	policy           string
	maxRenewableLife time.Duration
	keyMode          bindings.KeyMode
	password         string
	keysalts         *KeySalts
}

// NewPrincipal starts a builder for a principal named name. The key
// defaults to a randomized key.
func NewPrincipal(name string) *PrincipalBuilder {
	return &PrincipalBuilder{name: name, keyMode: bindings.KeyRandom}
}

// ExpireTime sets when the principal expires. The zero time clears it.
func (b *PrincipalBuilder) ExpireTime(t time.Time) *PrincipalBuilder {
	b.expireTime = t
	b.mask |= maskPrincExpireTime
	return b
}

// PasswordExpiration sets when the password expires. The zero time
// clears it.
func (b *PrincipalBuilder) PasswordExpiration(t time.Time) *PrincipalBuilder {
	b.pwExpiration = t
	b.mask |= maskPwExpiration
	return b
}

// MaxLife sets the maximum ticket life.
func (b *PrincipalBuilder) MaxLife(d time.Duration) *PrincipalBuilder {
	b.maxLife = d
	b.mask |= maskMaxLife
	return b
}

// Attributes sets the principal's flag bits.
func (b *PrincipalBuilder) Attributes(a PrincipalAttributes) *PrincipalBuilder {
	b.attributes = a
	b.mask |= maskAttributes
	return b
}

// Policy attaches a password policy. Without this call the library
// attaches the policy named "default" when one exists.
func (b *PrincipalBuilder) Policy(name string) *PrincipalBuilder {
	b.policy = name
	b.mask |= maskPolicy
	b.mask &^= maskPolicyClr
	return b
}

// NoPolicy requests that no policy be attached, overriding the realm's
// "default" policy convention.
func (b *PrincipalBuilder) NoPolicy() *PrincipalBuilder {
	b.policy = ""
	b.mask |= maskPolicyClr
	b.mask &^= maskPolicy
	return b
}

// MaxRenewableLife sets the maximum renewable ticket life.
func (b *PrincipalBuilder) MaxRenewableLife(d time.Duration) *PrincipalBuilder {
	b.maxRenewableLife = d
	b.mask |= maskMaxRLife
	return b
}

// Password derives the principal's keys from pw instead of randomizing
// them.
func (b *PrincipalBuilder) Password(pw string) *PrincipalBuilder {
	b.keyMode = bindings.KeyPassword
	b.password = pw
	return b
}

// RandomKey generates random keys for the principal. This is the
// default.
func (b *PrincipalBuilder) RandomKey() *PrincipalBuilder {
	b.keyMode = bindings.KeyRandom
	b.password = ""
	return b
}

// NoKey leaves the principal without keys.
func (b *PrincipalBuilder) NoKey() *PrincipalBuilder {
	b.keyMode = bindings.KeyNone
	b.password = ""
	return b
}

// KeySalts restricts randomized keys to the given enctype/salt tuples.
// Only meaningful with the random-key mode.
func (b *PrincipalBuilder) KeySalts(ks *KeySalts) *PrincipalBuilder {
	b.keysalts = ks
	return b
}

func (b *PrincipalBuilder) build() (*bindings.PrincipalEnt, int64, error) {
	if err := checkName(b.name); err != nil {
		return nil, 0, err
	}
	ent := &bindings.PrincipalEnt{Name: b.name}
	mask := b.mask | maskPrincipal
	var err error
	if ent.ExpireTime, err = timeToTS(b.expireTime); err != nil {
		return nil, 0, err
	}
	if ent.PwExpiration, err = timeToTS(b.pwExpiration); err != nil {
		return nil, 0, err
	}
	if ent.MaxLife, err = durToDelta(b.maxLife); err != nil {
		return nil, 0, err
	}
	if ent.MaxRenewableLife, err = durToDelta(b.maxRenewableLife); err != nil {
		return nil, 0, err
	}
	ent.Attributes = int32(b.attributes)
	ent.Policy = b.policy
	return ent, mask, nil
}

// PrincipalModifier stages changes to an existing principal. Only
// fields explicitly set are touched.
type PrincipalModifier struct {
	name             string
	mask             int64
	expireTime       time.Time
	pwExpiration     time.Time
	maxLife          time.Duration
	attributes       PrincipalAttributes
	policy           string
	maxRenewableLife time.Duration
}

// NewPrincipalModifier starts a modifier for the principal named name.
func NewPrincipalModifier(name string) *PrincipalModifier {
	return &PrincipalModifier{name: name}
}

// ExpireTime sets when the principal expires. The zero time clears it.
func (m *PrincipalModifier) ExpireTime(t time.Time) *PrincipalModifier {
	m.expireTime = t
	m.mask |= maskPrincExpireTime
	return m
}

// PasswordExpiration sets when the password expires. The zero time
// clears it.
func (m *PrincipalModifier) PasswordExpiration(t time.Time) *PrincipalModifier {
	m.pwExpiration = t
	m.mask |= maskPwExpiration
	return m
}

// MaxLife sets the maximum ticket life.
func (m *PrincipalModifier) MaxLife(d time.Duration) *PrincipalModifier {
	m.maxLife = d
	m.mask |= maskMaxLife
	return m
}

// Attributes replaces the principal's flag bits.
func (m *PrincipalModifier) Attributes(a PrincipalAttributes) *PrincipalModifier {
	m.attributes = a
	m.mask |= maskAttributes
	return m
}

// Policy attaches a password policy.
func (m *PrincipalModifier) Policy(name string) *PrincipalModifier {
	m.policy = name
	m.mask |= maskPolicy
	m.mask &^= maskPolicyClr
	return m
}

// NoPolicy detaches the principal's policy.
func (m *PrincipalModifier) NoPolicy() *PrincipalModifier {
	m.policy = ""
	m.mask |= maskPolicyClr
	m.mask &^= maskPolicy
	return m
}

// MaxRenewableLife sets the maximum renewable ticket life.
func (m *PrincipalModifier) MaxRenewableLife(d time.Duration) *PrincipalModifier {
	m.maxRenewableLife = d
	m.mask |= maskMaxRLife
	return m
}

func (m *PrincipalModifier) build() (*bindings.PrincipalEnt, int64, error) {
	if err := checkName(m.name); err != nil {
		return nil, 0, err
	}
	ent := &bindings.PrincipalEnt{Name: m.name}
	var err error
	if ent.ExpireTime, err = timeToTS(m.expireTime); err != nil {
		return nil, 0, err
	}
	if ent.PwExpiration, err = timeToTS(m.pwExpiration); err != nil {
		return nil, 0, err
	}
	if ent.MaxLife, err = durToDelta(m.maxLife); err != nil {
		return nil, 0, err
	}
	if ent.MaxRenewableLife, err = durToDelta(m.maxRenewableLife); err != nil {
		return nil, 0, err
	}
	ent.Attributes = int32(m.attributes)
	ent.Policy = m.policy
	return ent, m.mask, nil
}
