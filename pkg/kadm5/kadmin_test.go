package kadm5

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

func TestListPrincipalsReturnsRealmEntries(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	names, err := kadm.ListPrincipals(context.Background(), "*")
	if err != nil {
		t.Fatalf("ListPrincipals: %v", err)
	}
	want := []string{"kadmin/admin@KRBTEST.COM", "krbtgt/KRBTEST.COM@KRBTEST.COM"}
	if len(names) != len(want) {
		t.Fatalf("ListPrincipals = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ListPrincipals[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestListPrincipalsEmptyPatternMatchesAll(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	all, err := kadm.ListPrincipals(context.Background(), "")
	if err != nil {
		t.Fatalf("ListPrincipals: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListPrincipals(\"\") = %v, want both realm entries", all)
	}
}

func TestPrincipalLifecycle(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	b := NewPrincipal("alice").
		Password("correct horse").
		MaxLife(10 * time.Hour).
		Attributes(RequiresPreAuth)
	if err := kadm.AddPrincipal(ctx, b); err != nil {
		t.Fatalf("AddPrincipal: %v", err)
	}

	p, err := kadm.GetPrincipal(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPrincipal: %v", err)
	}
	if p.Name != "alice@KRBTEST.COM" {
		t.Fatalf("Name = %q, want alice@KRBTEST.COM", p.Name)
	}
	if p.MaxLife != 10*time.Hour {
		t.Fatalf("MaxLife = %v, want 10h", p.MaxLife)
	}
	if !p.Attributes.Has(RequiresPreAuth) {
		t.Fatalf("Attributes = %#x, want RequiresPreAuth set", int32(p.Attributes))
	}

	if err := kadm.ModifyPrincipal(ctx, NewPrincipalModifier("alice").MaxLife(8*time.Hour)); err != nil {
		t.Fatalf("ModifyPrincipal: %v", err)
	}
	p, err = kadm.GetPrincipal(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPrincipal after modify: %v", err)
	}
	if p.MaxLife != 8*time.Hour {
		t.Fatalf("MaxLife after modify = %v, want 8h", p.MaxLife)
	}

	if err := kadm.ChangePassword(ctx, "alice", "new password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if err := kadm.RenamePrincipal(ctx, "alice", "bob"); err != nil {
		t.Fatalf("RenamePrincipal: %v", err)
	}
	if p, err := kadm.GetPrincipal(ctx, "alice"); err != nil || p != nil {
		t.Fatalf("GetPrincipal(alice) after rename = %v, %v, want nil, nil", p, err)
	}

	if err := kadm.DeletePrincipal(ctx, "bob"); err != nil {
		t.Fatalf("DeletePrincipal: %v", err)
	}
	if p, err := kadm.GetPrincipal(ctx, "bob"); err != nil || p != nil {
		t.Fatalf("GetPrincipal(bob) after delete = %v, %v, want nil, nil", p, err)
	}
}

func TestGetPrincipalAbsent(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	p, err := kadm.GetPrincipal(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("GetPrincipal(nobody) = %v, want no error", err)
	}
	if p != nil {
		t.Fatalf("GetPrincipal(nobody) = %+v, want nil snapshot", p)
	}
}

func TestPrincipalExists(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	ok, err := kadm.PrincipalExists(ctx, "kadmin/admin")
	if err != nil || !ok {
		t.Fatalf("PrincipalExists(kadmin/admin) = %v, %v, want true, nil", ok, err)
	}
	ok, err = kadm.PrincipalExists(ctx, "nobody")
	if err != nil || ok {
		t.Fatalf("PrincipalExists(nobody) = %v, %v, want false, nil", ok, err)
	}
}

func TestDuplicatePrincipal(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	if err := kadm.AddPrincipal(ctx, NewPrincipal("dup").NoKey()); err != nil {
		t.Fatalf("AddPrincipal: %v", err)
	}
	err := kadm.AddPrincipal(ctx, NewPrincipal("dup").NoKey())
	var kerr *KAdminError
	if !errors.As(err, &kerr) || kerr.Code != CodeDup {
		t.Fatalf("second AddPrincipal = %v, want CodeDup", err)
	}
}

func TestPolicyLifecycle(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	b := NewPolicy("users").
		PasswordMinLength(12).
		PasswordMinClasses(3).
		PasswordMaxLife(90 * 24 * time.Hour)
	if err := kadm.AddPolicy(ctx, b); err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}

	pol, err := kadm.GetPolicy(ctx, "users")
	if err != nil {
		t.Fatalf("GetPolicy: %v", err)
	}
	if pol.PasswordMinLength != 12 || pol.PasswordMinClasses != 3 {
		t.Fatalf("policy = %+v, want min length 12, min classes 3", pol)
	}

	if err := kadm.ModifyPolicy(ctx, NewPolicyModifier("users").PasswordMinLength(16)); err != nil {
		t.Fatalf("ModifyPolicy: %v", err)
	}
	pol, err = kadm.GetPolicy(ctx, "users")
	if err != nil {
		t.Fatalf("GetPolicy after modify: %v", err)
	}
	if pol.PasswordMinLength != 16 {
		t.Fatalf("PasswordMinLength after modify = %d, want 16", pol.PasswordMinLength)
	}

	pols, err := kadm.ListPolicies(ctx, "*")
	if err != nil {
		t.Fatalf("ListPolicies: %v", err)
	}
	if len(pols) != 1 || pols[0] != "users" {
		t.Fatalf("ListPolicies = %v, want [users]", pols)
	}

	if err := kadm.DeletePolicy(ctx, "users"); err != nil {
		t.Fatalf("DeletePolicy: %v", err)
	}
	if pol, err := kadm.GetPolicy(ctx, "users"); err != nil || pol != nil {
		t.Fatalf("GetPolicy after delete = %v, %v, want nil, nil", pol, err)
	}
}

func TestGetPolicyAbsent(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	pol, err := kadm.GetPolicy(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetPolicy(missing) = %v, want no error", err)
	}
	if pol != nil {
		t.Fatalf("GetPolicy(missing) = %+v, want nil snapshot", pol)
	}
}

func TestPolicyExists(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	if err := kadm.AddPolicy(ctx, NewPolicy("users")); err != nil {
		t.Fatalf("AddPolicy: %v", err)
	}
	ok, err := kadm.PolicyExists(ctx, "users")
	if err != nil || !ok {
		t.Fatalf("PolicyExists(users) = %v, %v, want true, nil", ok, err)
	}
	ok, err = kadm.PolicyExists(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("PolicyExists(missing) = %v, %v, want false, nil", ok, err)
	}
}

func TestPrivilegesAndRealm(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	privs, err := kadm.Privileges(ctx)
	if err != nil {
		t.Fatalf("Privileges: %v", err)
	}
	if !privs.Has(PrivInquire | PrivAdd | PrivModify | PrivDelete) {
		t.Fatalf("Privileges = %#x, want all bits", int64(privs))
	}

	realm, err := kadm.DefaultRealm(ctx)
	if err != nil {
		t.Fatalf("DefaultRealm: %v", err)
	}
	if realm != "KRBTEST.COM" {
		t.Fatalf("DefaultRealm = %q, want KRBTEST.COM", realm)
	}
}

func TestCanceledContext(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := kadm.ListPrincipals(ctx, "*"); !errors.Is(err, context.Canceled) {
		t.Fatalf("ListPrincipals with canceled context = %v, want context.Canceled", err)
	}
}

func TestUnrecognizedEnctypeFromBackend(t *testing.T) {
	f := newFakeBackend(t)
	f.principals["oddkeys@KRBTEST.COM"] = &bindings.PrincipalEnt{
		Name:    "oddkeys@KRBTEST.COM",
		KeyData: []bindings.KeyDataEnt{{Kvno: 1, Enctype: 999}},
	}
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	p, err := kadm.GetPrincipal(ctx, "oddkeys")
	if err != nil {
		t.Fatalf("GetPrincipal: %v", err)
	}
	// The raw code is preserved; asking for its name is what fails.
	if _, err := p.KeyData[0].EncryptionType.Name(); !errors.Is(err, ErrEncryptionTypeConversion) {
		t.Fatalf("Name() = %v, want ErrEncryptionTypeConversion", err)
	}

	// The worker stays usable after the odd entry.
	if _, err := kadm.ListPrincipals(ctx, "*"); err != nil {
		t.Fatalf("ListPrincipals after odd entry: %v", err)
	}
}

func TestConversionFailureLeavesWorkerUsable(t *testing.T) {
	f := newFakeBackend(t)
	f.principals["broken@KRBTEST.COM"] = &bindings.PrincipalEnt{Name: "broken@KRBTEST.COM", MaxLife: -1}
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	if _, err := kadm.GetPrincipal(ctx, "broken"); !errors.Is(err, ErrDurationConversion) {
		t.Fatalf("GetPrincipal(broken) = %v, want ErrDurationConversion", err)
	}
	if _, err := kadm.ListPrincipals(ctx, "*"); err != nil {
		t.Fatalf("ListPrincipals after conversion failure: %v", err)
	}
}

func TestRandomizeKeysPassesKeySalts(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	ks, err := ParseKeySalts("aes256-cts:normal,aes128-cts:normal")
	if err != nil {
		t.Fatalf("ParseKeySalts: %v", err)
	}
	if err := kadm.RandomizeKeys(ctx, "kadmin/admin", ks); err != nil {
		t.Fatalf("RandomizeKeys: %v", err)
	}

	got := f.recordedKeySalts()
	want := []bindings.KeySalt{
		{Enctype: int32(Aes128CtsHmacSha196), SaltType: int32(SaltNormal)},
		{Enctype: int32(Aes256CtsHmacSha196), SaltType: int32(SaltNormal)},
	}
	if len(got) != len(want) {
		t.Fatalf("keysalts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("keysalts[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	// A nil set keeps the realm default.
	if err := kadm.RandomizeKeys(ctx, "kadmin/admin", nil); err != nil {
		t.Fatalf("RandomizeKeys without keysalts: %v", err)
	}
	if got := f.recordedKeySalts(); len(got) != 0 {
		t.Fatalf("keysalts without a set = %v, want none", got)
	}
}

func TestNameWithInteriorNulRejected(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	_, err := kadm.GetPrincipal(context.Background(), "bad\x00name")
	if !errors.Is(err, ErrStringConversion) {
		t.Fatalf("GetPrincipal with NUL = %v, want ErrStringConversion", err)
	}
	// Rejected before it ever reaches the worker.
	for _, call := range f.recorded() {
		if call == "GetPrincipal" {
			t.Fatal("invalid name reached the backend")
		}
	}
}
