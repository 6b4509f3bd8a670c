//go:build integration && cgo && !windows

package kadm5

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// These tests run against a throwaway MIT KDC in a container. They are
// excluded from the default build; run them with
//
//	go test -tags integration ./pkg/kadm5
//
// A container runtime must be available.

const (
	testRealm         = "KRBTEST.COM"
	testAdminPassword = "admin-password"
)

type kdcContainer struct {
	testcontainers.Container
	adminAddr string
	adminPort int
}

func startKDC(t *testing.T) *kdcContainer {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "gcavalcante8808/krb5-server:latest",
		ExposedPorts: []string{"88/udp", "464/tcp", "749/tcp"},
		Env: map[string]string{
			"KRB5_REALM": testRealm,
			"KRB5_KDC":   "localhost",
			"KRB5_PASS":  testAdminPassword,
		},
		WaitingFor: wait.ForListeningPort("749/tcp").WithStartupTimeout(2 * time.Minute),
	}
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start KDC container: %v", err)
	}
	t.Cleanup(func() {
		_ = ctr.Terminate(context.Background())
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := ctr.MappedPort(ctx, "749/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return &kdcContainer{Container: ctr, adminAddr: host, adminPort: port.Int()}
}

// writeKrb5Conf points the library at the containerized realm and
// installs it via KRB5_CONFIG for the duration of the test.
func writeKrb5Conf(t *testing.T, kdc *kdcContainer) {
	t.Helper()
	conf := fmt.Sprintf(`[libdefaults]
    default_realm = %[1]s
    dns_lookup_kdc = false

[realms]
    %[1]s = {
        kdc = %[2]s
        admin_server = %[2]s:%[3]d
    }
`, testRealm, kdc.adminAddr, kdc.adminPort)
	path := filepath.Join(t.TempDir(), "krb5.conf")
	if err := os.WriteFile(path, []byte(conf), 0o600); err != nil {
		t.Fatalf("write krb5.conf: %v", err)
	}
	t.Setenv("KRB5_CONFIG", path)
}

func dialTestRealm(t *testing.T, kdc *kdcContainer) *KAdmin {
	t.Helper()
	params, err := NewParams().
		Realm(testRealm).
		AdminServer(kdc.adminAddr).
		KadmindPort(kdc.adminPort).
		Build()
	if err != nil {
		t.Fatalf("build params: %v", err)
	}
	kadm, err := NewWithPassword("admin/admin@"+testRealm, testAdminPassword, WithParams(params))
	if err != nil {
		t.Fatalf("NewWithPassword: %v", err)
	}
	return kadm
}

func TestIntegrationListPrincipals(t *testing.T) {
	kdc := startKDC(t)
	writeKrb5Conf(t, kdc)
	kadm := dialTestRealm(t, kdc)
	defer func() { _ = kadm.Close() }()

	names, err := kadm.ListPrincipals(context.Background(), "*")
	if err != nil {
		t.Fatalf("ListPrincipals: %v", err)
	}
	want := map[string]bool{
		"kadmin/admin@" + testRealm:              false,
		"krbtgt/" + testRealm + "@" + testRealm: false,
	}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("ListPrincipals missing %q (got %v)", name, names)
		}
	}
}

func TestIntegrationBadPassword(t *testing.T) {
	kdc := startKDC(t)
	writeKrb5Conf(t, kdc)

	params, err := NewParams().
		Realm(testRealm).
		AdminServer(kdc.adminAddr).
		KadmindPort(kdc.adminPort).
		Build()
	if err != nil {
		t.Fatalf("build params: %v", err)
	}
	_, err = NewWithPassword("admin/admin@"+testRealm, "not the password", WithParams(params))
	var kerr *KerberosError
	if !errors.As(err, &kerr) {
		t.Fatalf("NewWithPassword with bad password = %v, want KerberosError", err)
	}
}

func TestIntegrationPrincipalRoundTrip(t *testing.T) {
	kdc := startKDC(t)
	writeKrb5Conf(t, kdc)
	kadm := dialTestRealm(t, kdc)
	defer func() { _ = kadm.Close() }()
	ctx := context.Background()

	name := "itest/roundtrip"
	if err := kadm.AddPrincipal(ctx, NewPrincipal(name).Password("s3cret-pw").MaxLife(10*time.Hour)); err != nil {
		t.Fatalf("AddPrincipal: %v", err)
	}
	defer func() { _ = kadm.DeletePrincipal(ctx, name) }()

	if p, err := kadm.GetPrincipal(ctx, "itest/definitely-missing"); err != nil || p != nil {
		t.Fatalf("GetPrincipal(missing) = %v, %v, want nil, nil", p, err)
	}

	p, err := kadm.GetPrincipal(ctx, name)
	if err != nil {
		t.Fatalf("GetPrincipal: %v", err)
	}
	if p == nil {
		t.Fatal("GetPrincipal returned nil for a principal that was just created")
	}
	if p.Name != name+"@"+testRealm {
		t.Fatalf("Name = %q", p.Name)
	}
	if err := kadm.ChangePassword(ctx, name, "an0ther-pw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	after, err := kadm.GetPrincipal(ctx, name)
	if err != nil {
		t.Fatalf("GetPrincipal after cpw: %v", err)
	}
	if !after.LastPasswordChange.After(time.Time{}) {
		t.Fatal("LastPasswordChange not recorded")
	}
}
