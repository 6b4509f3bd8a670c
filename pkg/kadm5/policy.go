package kadm5

import (
	"time"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// Policy field mask bits. These reuse bit positions above the principal
// masks; the two sets are never mixed in one call.
const (
	maskPolicyName          int64 = 0x000800
	maskPwMaxLife           int64 = 0x004000
	maskPwMinLife           int64 = 0x008000
	maskPwMinLength         int64 = 0x010000
	maskPwMinClasses        int64 = 0x020000
	maskPwHistoryNum        int64 = 0x040000
	maskPwMaxFailure        int64 = 0x100000
	maskPwFailCountInterval int64 = 0x200000
	maskPwLockoutDuration   int64 = 0x400000
)

// Policy is a read-only snapshot of a password policy. Zero durations
// mean the corresponding limit is not set.
type Policy struct {
	// Name is the policy name.
	Name string
	// PasswordMinLife is the minimum password lifetime.
	PasswordMinLife time.Duration
	// PasswordMaxLife is the maximum password lifetime.
	PasswordMaxLife time.Duration
	// PasswordMinLength is the minimum password length.
	PasswordMinLength int64
	// PasswordMinClasses is the minimum number of character classes
	// (lower case, upper case, digits, punctuation, other).
	PasswordMinClasses int64
	// PasswordHistoryNum is the number of past keys kept. Some KDC
	// database modules do not fill this.
	PasswordHistoryNum int64
	// RefCount is how many principals use this policy. MIT no longer
	// maintains it.
	RefCount int64
	// PasswordMaxFail is the number of authentication failures before
	// lockout; zero disables lockout.
	PasswordMaxFail uint32
	// PasswordFailCountInterval is the window within which failures
	// accumulate; zero means forever.
	PasswordFailCountInterval time.Duration
	// PasswordLockoutDuration is how long a locked principal stays
	// locked; zero means until administratively unlocked.
	PasswordLockoutDuration time.Duration
}

func policyFromEnt(ent *bindings.PolicyEnt) (*Policy, error) {
	failInterval, err := deltaToDur(ent.PwFailcntInterval)
	if err != nil {
		return nil, err
	}
	lockout, err := deltaToDur(ent.PwLockoutDuration)
	if err != nil {
		return nil, err
	}
	return &Policy{
		Name:                      ent.Name,
		PasswordMinLife:           time.Duration(ent.PwMinLife) * time.Second,
		PasswordMaxLife:           time.Duration(ent.PwMaxLife) * time.Second,
		PasswordMinLength:         ent.PwMinLength,
		PasswordMinClasses:        ent.PwMinClasses,
		PasswordHistoryNum:        ent.PwHistoryNum,
		RefCount:                  ent.PolicyRefcnt,
		PasswordMaxFail:           ent.PwMaxFail,
		PasswordFailCountInterval: failInterval,
		PasswordLockoutDuration:   lockout,
	}, nil
}

// policySpec stages policy fields for create and modify. Only fields
// explicitly set are sent to the library.
type policySpec struct {
	name              string
	mask              int64
	pwMinLife         time.Duration
	pwMaxLife         time.Duration
	pwMinLength       int64
	pwMinClasses      int64
	pwHistoryNum      int64
	pwMaxFail         uint32
	pwFailCntInterval time.Duration
	pwLockoutDuration time.Duration
}

func (s *policySpec) build() (*bindings.PolicyEnt, int64, error) {
	if err := checkName(s.name); err != nil {
		return nil, 0, err
	}
	ent := &bindings.PolicyEnt{Name: s.name}
	minLife, err := durToDelta(s.pwMinLife)
	if err != nil {
		return nil, 0, err
	}
	maxLife, err := durToDelta(s.pwMaxLife)
	if err != nil {
		return nil, 0, err
	}
	ent.PwMinLife = int64(minLife)
	ent.PwMaxLife = int64(maxLife)
	ent.PwMinLength = s.pwMinLength
	ent.PwMinClasses = s.pwMinClasses
	ent.PwHistoryNum = s.pwHistoryNum
	ent.PwMaxFail = s.pwMaxFail
	if ent.PwFailcntInterval, err = durToDelta(s.pwFailCntInterval); err != nil {
		return nil, 0, err
	}
	if ent.PwLockoutDuration, err = durToDelta(s.pwLockoutDuration); err != nil {
		return nil, 0, err
	}
	return ent, s.mask | maskPolicyName, nil
}

// PolicyBuilder stages the fields of a policy to create.
type PolicyBuilder struct {
	spec policySpec
}

// NewPolicy starts a builder for a policy named name.
func NewPolicy(name string) *PolicyBuilder {
	return &PolicyBuilder{spec: policySpec{name: name}}
}

// PasswordMinLife sets the minimum password lifetime.
func (b *PolicyBuilder) PasswordMinLife(d time.Duration) *PolicyBuilder {
	b.spec.pwMinLife = d
	b.spec.mask |= maskPwMinLife
	return b
}

// PasswordMaxLife sets the maximum password lifetime.
func (b *PolicyBuilder) PasswordMaxLife(d time.Duration) *PolicyBuilder {
	b.spec.pwMaxLife = d
	b.spec.mask |= maskPwMaxLife
	return b
}

// PasswordMinLength sets the minimum password length.
func (b *PolicyBuilder) PasswordMinLength(n int64) *PolicyBuilder {
	b.spec.pwMinLength = n
	b.spec.mask |= maskPwMinLength
	return b
}

// PasswordMinClasses sets the minimum number of character classes.
func (b *PolicyBuilder) PasswordMinClasses(n int64) *PolicyBuilder {
	b.spec.pwMinClasses = n
	b.spec.mask |= maskPwMinClasses
	return b
}

// PasswordHistoryNum sets the number of past keys kept.
func (b *PolicyBuilder) PasswordHistoryNum(n int64) *PolicyBuilder {
	b.spec.pwHistoryNum = n
	b.spec.mask |= maskPwHistoryNum
	return b
}

// PasswordMaxFail sets the failure count that triggers lockout.
func (b *PolicyBuilder) PasswordMaxFail(n uint32) *PolicyBuilder {
	b.spec.pwMaxFail = n
	b.spec.mask |= maskPwMaxFailure
	return b
}

// PasswordFailCountInterval sets the failure accumulation window.
func (b *PolicyBuilder) PasswordFailCountInterval(d time.Duration) *PolicyBuilder {
	b.spec.pwFailCntInterval = d
	b.spec.mask |= maskPwFailCountInterval
	return b
}

// PasswordLockoutDuration sets how long lockout lasts.
func (b *PolicyBuilder) PasswordLockoutDuration(d time.Duration) *PolicyBuilder {
	b.spec.pwLockoutDuration = d
	b.spec.mask |= maskPwLockoutDuration
	return b
}

// PolicyModifier stages changes to an existing policy.
type PolicyModifier struct {
	spec policySpec
}

// NewPolicyModifier starts a modifier for the policy named name.
func NewPolicyModifier(name string) *PolicyModifier {
	return &PolicyModifier{spec: policySpec{name: name}}
}

// PasswordMinLife sets the minimum password lifetime.
func (m *PolicyModifier) PasswordMinLife(d time.Duration) *PolicyModifier {
	m.spec.pwMinLife = d
	m.spec.mask |= maskPwMinLife
	return m
}

// PasswordMaxLife sets the maximum password lifetime.
func (m *PolicyModifier) PasswordMaxLife(d time.Duration) *PolicyModifier {
	m.spec.pwMaxLife = d
	m.spec.mask |= maskPwMaxLife
	return m
}

// PasswordMinLength sets the minimum password length.
func (m *PolicyModifier) PasswordMinLength(n int64) *PolicyModifier {
	m.spec.pwMinLength = n
	m.spec.mask |= maskPwMinLength
	return m
}

// PasswordMinClasses sets the minimum number of character classes.
func (m *PolicyModifier) PasswordMinClasses(n int64) *PolicyModifier {
	m.spec.pwMinClasses = n
	m.spec.mask |= maskPwMinClasses
	return m
}

// PasswordHistoryNum sets the number of past keys kept.
func (m *PolicyModifier) PasswordHistoryNum(n int64) *PolicyModifier {
	m.spec.pwHistoryNum = n
	m.spec.mask |= maskPwHistoryNum
	return m
}

// PasswordMaxFail sets the failure count that triggers lockout.
func (m *PolicyModifier) PasswordMaxFail(n uint32) *PolicyModifier {
	m.spec.pwMaxFail = n
	m.spec.mask |= maskPwMaxFailure
	return m
}

// PasswordFailCountInterval sets the failure accumulation window.
func (m *PolicyModifier) PasswordFailCountInterval(d time.Duration) *PolicyModifier {
	m.spec.pwFailCntInterval = d
	m.spec.mask |= maskPwFailCountInterval
	return m
}

// PasswordLockoutDuration sets how long lockout lasts.
func (m *PolicyModifier) PasswordLockoutDuration(d time.Duration) *PolicyModifier {
	m.spec.pwLockoutDuration = d
	m.spec.mask |= maskPwLockoutDuration
	return m
}
