package kadm5

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/authentik-community/kadmin-go/internal/bindings"
)

// fakeBackend is an in-memory realm used to exercise the worker
// runtime without a KDC. It records every call and fails the test if
// two calls ever overlap, which would mean the worker let commands run
// concurrently.
type fakeBackend struct {
	t *testing.T

	realm      string
	principals map[string]*bindings.PrincipalEnt
	policies   map[string]*bindings.PolicyEnt

	openErr   error
	callDelay time.Duration
	panicOn   string // method name that panics once

	inFlight   atomic.Int32
	violations atomic.Int32
	closed     atomic.Int32

	mu           sync.Mutex
	calls        []string
	lastKeySalts []bindings.KeySalt
}

func newFakeBackend(t *testing.T) *fakeBackend {
	realm := "KRBTEST.COM"
	f := &fakeBackend{
		t:          t,
		realm:      realm,
		principals: make(map[string]*bindings.PrincipalEnt),
		policies:   make(map[string]*bindings.PolicyEnt),
	}
	for _, name := range []string{"kadmin/admin@" + realm, "krbtgt/" + realm + "@" + realm} {
		f.principals[name] = &bindings.PrincipalEnt{Name: name, Kvno: 1}
	}
	return f
}

// enter asserts single-flight execution and records the call.
func (f *fakeBackend) enter(method string) func() {
	if f.inFlight.Add(1) != 1 {
		f.violations.Add(1)
	}
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
	if f.panicOn == method {
		f.panicOn = ""
		f.inFlight.Add(-1)
		panic("injected fault in " + method)
	}
	if f.callDelay > 0 {
		time.Sleep(f.callDelay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeBackend) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) qualify(name string) string {
	for _, r := range name {
		if r == '@' {
			return name
		}
	}
	return name + "@" + f.realm
}

func (f *fakeBackend) OpenPassword(client, password string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	defer f.enter("OpenPassword")()
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &bindings.Handle{}, nil
}

func (f *fakeBackend) OpenKeytab(client, keytab string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	defer f.enter("OpenKeytab")()
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &bindings.Handle{}, nil
}

func (f *fakeBackend) OpenCCache(client, ccache string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	defer f.enter("OpenCCache")()
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &bindings.Handle{}, nil
}

func (f *fakeBackend) OpenLocal(client string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	defer f.enter("OpenLocal")()
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &bindings.Handle{}, nil
}

func (f *fakeBackend) Close(h *bindings.Handle) error {
	defer f.enter("Close")()
	f.closed.Add(1)
	return nil
}

func (f *fakeBackend) GetPrincipal(h *bindings.Handle, name string) (*bindings.PrincipalEnt, error) {
	defer f.enter("GetPrincipal")()
	ent, ok := f.principals[f.qualify(name)]
	if !ok {
		return nil, &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	}
	cp := *ent
	return &cp, nil
}

func (f *fakeBackend) CreatePrincipal(h *bindings.Handle, ent *bindings.PrincipalEnt, mask int64, password string) error {
	defer f.enter(fmt.Sprintf("CreatePrincipal(%s)", ent.Name))()
	name := f.qualify(ent.Name)
	if _, ok := f.principals[name]; ok {
		return &KAdminError{Code: CodeDup, Message: kadmMessages[CodeDup]}
	}
	cp := *ent
	cp.Name = name
	cp.Kvno = 1
	f.principals[name] = &cp
	return nil
}

func (f *fakeBackend) ModifyPrincipal(h *bindings.Handle, ent *bindings.PrincipalEnt, mask int64) error {
	defer f.enter("ModifyPrincipal")()
	name := f.qualify(ent.Name)
	cur, ok := f.principals[name]
	if !ok {
		return &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	}
	if mask&maskAttributes != 0 {
		cur.Attributes = ent.Attributes
	}
	if mask&maskMaxLife != 0 {
		cur.MaxLife = ent.MaxLife
	}
	return nil
}

func (f *fakeBackend) DeletePrincipal(h *bindings.Handle, name string) error {
	defer f.enter("DeletePrincipal")()
	name = f.qualify(name)
	if _, ok := f.principals[name]; !ok {
		return &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	}
	delete(f.principals, name)
	return nil
}

func (f *fakeBackend) RenamePrincipal(h *bindings.Handle, oldName, newName string) error {
	defer f.enter("RenamePrincipal")()
	oldName, newName = f.qualify(oldName), f.qualify(newName)
	ent, ok := f.principals[oldName]
	if !ok {
		return &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	}
	delete(f.principals, oldName)
	ent.Name = newName
	f.principals[newName] = ent
	return nil
}

func (f *fakeBackend) ChangePassword(h *bindings.Handle, name, password string) error {
	defer f.enter("ChangePassword")()
	if _, ok := f.principals[f.qualify(name)]; !ok {
		return &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	}
	return nil
}

func (f *fakeBackend) RandomizeKeys(h *bindings.Handle, name string, keysalts []bindings.KeySalt) error {
	defer f.enter(fmt.Sprintf("RandomizeKeys(%s)", name))()
	ent, ok := f.principals[f.qualify(name)]
	if !ok {
		return &KAdminError{Code: CodeUnknownPrincipal, Message: kadmMessages[CodeUnknownPrincipal]}
	}
	f.mu.Lock()
	f.lastKeySalts = append([]bindings.KeySalt(nil), keysalts...)
	f.mu.Unlock()
	ent.Kvno++
	return nil
}

func (f *fakeBackend) recordedKeySalts() []bindings.KeySalt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bindings.KeySalt(nil), f.lastKeySalts...)
}

func (f *fakeBackend) ListPrincipals(h *bindings.Handle, pattern string) ([]string, error) {
	defer f.enter("ListPrincipals")()
	var names []string
	for name := range f.principals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeBackend) GetPolicy(h *bindings.Handle, name string) (*bindings.PolicyEnt, error) {
	defer f.enter("GetPolicy")()
	ent, ok := f.policies[name]
	if !ok {
		return nil, &KAdminError{Code: CodeUnknownPolicy, Message: kadmMessages[CodeUnknownPolicy]}
	}
	cp := *ent
	return &cp, nil
}

func (f *fakeBackend) CreatePolicy(h *bindings.Handle, ent *bindings.PolicyEnt, mask int64) error {
	defer f.enter("CreatePolicy")()
	if _, ok := f.policies[ent.Name]; ok {
		return &KAdminError{Code: CodeDup, Message: kadmMessages[CodeDup]}
	}
	cp := *ent
	f.policies[ent.Name] = &cp
	return nil
}

func (f *fakeBackend) ModifyPolicy(h *bindings.Handle, ent *bindings.PolicyEnt, mask int64) error {
	defer f.enter("ModifyPolicy")()
	cur, ok := f.policies[ent.Name]
	if !ok {
		return &KAdminError{Code: CodeUnknownPolicy, Message: kadmMessages[CodeUnknownPolicy]}
	}
	if mask&maskPwMinLength != 0 {
		cur.PwMinLength = ent.PwMinLength
	}
	if mask&maskPwMinClasses != 0 {
		cur.PwMinClasses = ent.PwMinClasses
	}
	return nil
}

func (f *fakeBackend) DeletePolicy(h *bindings.Handle, name string) error {
	defer f.enter("DeletePolicy")()
	if _, ok := f.policies[name]; !ok {
		return &KAdminError{Code: CodeUnknownPolicy, Message: kadmMessages[CodeUnknownPolicy]}
	}
	delete(f.policies, name)
	return nil
}

func (f *fakeBackend) ListPolicies(h *bindings.Handle, pattern string) ([]string, error) {
	defer f.enter("ListPolicies")()
	var names []string
	for name := range f.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeBackend) Privileges(h *bindings.Handle) (int64, error) {
	defer f.enter("Privileges")()
	return int64(PrivInquire | PrivAdd | PrivModify | PrivDelete), nil
}

func (f *fakeBackend) DefaultRealm(h *bindings.Handle) (string, error) {
	defer f.enter("DefaultRealm")()
	return f.realm, nil
}

func newTestClient(t *testing.T, f *fakeBackend) *KAdmin {
	t.Helper()
	kadm, err := NewWithPassword("user/admin@"+f.realm, "hunter2", withBackend(f))
	if err != nil {
		t.Fatalf("NewWithPassword: %v", err)
	}
	return kadm
}

func TestWorkerSerializesCommands(t *testing.T) {
	f := newFakeBackend(t)
	f.callDelay = time.Millisecond
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := kadm.ListPrincipals(ctx, "*"); err != nil {
				t.Errorf("ListPrincipals: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := f.violations.Load(); n != 0 {
		t.Fatalf("backend saw %d overlapping calls, want 0", n)
	}
}

func TestWorkerPreservesOrder(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	ctx := context.Background()
	names := []string{"a", "b", "c", "d"}
	for _, name := range names {
		if err := kadm.AddPrincipal(ctx, NewPrincipal(name).NoKey()); err != nil {
			t.Fatalf("AddPrincipal(%s): %v", name, err)
		}
	}

	var created []string
	for _, call := range f.recorded() {
		if strings.HasPrefix(call, "CreatePrincipal(") {
			created = append(created, call)
		}
	}
	want := []string{"CreatePrincipal(a)", "CreatePrincipal(b)", "CreatePrincipal(c)", "CreatePrincipal(d)"}
	if len(created) != len(want) {
		t.Fatalf("created = %v, want %v", created, want)
	}
	for i := range want {
		if created[i] != want[i] {
			t.Fatalf("created[%d] = %q, want %q", i, created[i], want[i])
		}
	}
}

func TestFailedCommandLeavesWorkerUsable(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	ctx := context.Background()
	err := kadm.DeletePrincipal(ctx, "nobody")
	var kerr *KAdminError
	if !errors.As(err, &kerr) || kerr.Code != CodeUnknownPrincipal {
		t.Fatalf("DeletePrincipal(nobody) = %v, want CodeUnknownPrincipal", err)
	}

	if _, err := kadm.ListPrincipals(ctx, "*"); err != nil {
		t.Fatalf("ListPrincipals after failed command: %v", err)
	}
}

func TestPanicBecomesRuntimeFault(t *testing.T) {
	f := newFakeBackend(t)
	f.panicOn = "GetPrincipal"
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	ctx := context.Background()
	_, err := kadm.GetPrincipal(ctx, "kadmin/admin")
	var fault *RuntimeFault
	if !errors.As(err, &fault) {
		t.Fatalf("GetPrincipal during fault = %v, want RuntimeFault", err)
	}

	// The worker survives the fault.
	if _, err := kadm.GetPrincipal(ctx, "kadmin/admin"); err != nil {
		t.Fatalf("GetPrincipal after fault: %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)

	if err := kadm.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := kadm.Close(); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("second Close = %v, want ErrClientClosed", err)
	}
	if n := f.closed.Load(); n != 1 {
		t.Fatalf("native handle closed %d times, want 1", n)
	}
}

func TestOperationsAfterClose(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	if err := kadm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := kadm.ListPrincipals(context.Background(), "*"); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("ListPrincipals after Close = %v, want ErrClientClosed", err)
	}
}

func TestCloseWaitsForInFlight(t *testing.T) {
	f := newFakeBackend(t)
	f.callDelay = 20 * time.Millisecond
	kadm := newTestClient(t, f)

	ctx := context.Background()
	done := make(chan error, 1)
	go func() {
		_, err := kadm.ListPrincipals(ctx, "*")
		done <- err
	}()

	// Give the operation time to reach the worker, then close.
	time.Sleep(5 * time.Millisecond)
	if err := kadm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := <-done; err != nil && !errors.Is(err, ErrClientClosed) {
		t.Fatalf("in-flight operation = %v, want nil or ErrClientClosed", err)
	}
	if n := f.violations.Load(); n != 0 {
		t.Fatalf("backend saw %d overlapping calls, want 0", n)
	}
}

func TestOpenFailureLeavesNothingBehind(t *testing.T) {
	f := newFakeBackend(t)
	f.openErr = &KerberosError{Code: -1765328360, Message: "Preauthentication failed"}

	_, err := NewWithPassword("user/admin@KRBTEST.COM", "wrong", withBackend(f))
	var kerr *KerberosError
	if !errors.As(err, &kerr) {
		t.Fatalf("NewWithPassword = %v, want KerberosError", err)
	}
	if f.closed.Load() != 0 {
		t.Fatalf("close called after failed open")
	}

	// The lifecycle lock must be free for the next client.
	f.openErr = nil
	kadm := newTestClient(t, f)
	_ = kadm.Close()
}

func TestAddPrincipalRandomKey(t *testing.T) {
	f := newFakeBackend(t)
	kadm := newTestClient(t, f)
	defer func() { _ = kadm.Close() }()

	ctx := context.Background()
	if err := kadm.AddPrincipal(ctx, NewPrincipal("service/host")); err != nil {
		t.Fatalf("AddPrincipal: %v", err)
	}

	calls := f.recorded()
	var sawCreate, sawRandomize bool
	for _, c := range calls {
		if c == "CreatePrincipal(service/host)" {
			sawCreate = true
		}
		if sawCreate && c == "RandomizeKeys(service/host)" {
			sawRandomize = true
		}
	}
	if !sawCreate || !sawRandomize {
		t.Fatalf("random-key create did not randomize after create: %v", calls)
	}

	p, err := kadm.GetPrincipal(ctx, "service/host")
	if err != nil {
		t.Fatalf("GetPrincipal: %v", err)
	}
	if p.Kvno != 2 {
		t.Fatalf("kvno = %d after randomize, want 2", p.Kvno)
	}
}

func TestInitLockTimesOut(t *testing.T) {
	old := initLockTimeout
	initLockTimeout = 10 * time.Millisecond
	defer func() { initLockTimeout = old }()

	if err := acquireInitLock(); err != nil {
		t.Fatalf("acquireInitLock: %v", err)
	}
	defer releaseInitLock()

	if err := acquireInitLock(); !errors.Is(err, ErrLock) {
		if err == nil {
			releaseInitLock()
		}
		t.Fatalf("second acquire = %v, want ErrLock", err)
	}
}
