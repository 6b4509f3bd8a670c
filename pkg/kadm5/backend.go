package kadm5

import "github.com/authentik-community/kadmin-go/internal/bindings"

// backend is the seam between the client and the native library. The
// production implementation delegates to internal/bindings; tests
// substitute an in-memory fake to exercise the worker runtime without a
// KDC.
//
// Implementations are not required to be safe for concurrent use; the
// worker serializes all calls on one OS thread.
type backend interface {
	OpenPassword(client, password string, params bindings.Params, dbArgs []string) (*bindings.Handle, error)
	OpenKeytab(client, keytab string, params bindings.Params, dbArgs []string) (*bindings.Handle, error)
	OpenCCache(client, ccache string, params bindings.Params, dbArgs []string) (*bindings.Handle, error)
	OpenLocal(client string, params bindings.Params, dbArgs []string) (*bindings.Handle, error)
	Close(h *bindings.Handle) error

	GetPrincipal(h *bindings.Handle, name string) (*bindings.PrincipalEnt, error)
	CreatePrincipal(h *bindings.Handle, ent *bindings.PrincipalEnt, mask int64, password string) error
	ModifyPrincipal(h *bindings.Handle, ent *bindings.PrincipalEnt, mask int64) error
	DeletePrincipal(h *bindings.Handle, name string) error
	RenamePrincipal(h *bindings.Handle, oldName, newName string) error
	ChangePassword(h *bindings.Handle, name, password string) error
	RandomizeKeys(h *bindings.Handle, name string, keysalts []bindings.KeySalt) error
	ListPrincipals(h *bindings.Handle, pattern string) ([]string, error)

	GetPolicy(h *bindings.Handle, name string) (*bindings.PolicyEnt, error)
	CreatePolicy(h *bindings.Handle, ent *bindings.PolicyEnt, mask int64) error
	ModifyPolicy(h *bindings.Handle, ent *bindings.PolicyEnt, mask int64) error
	DeletePolicy(h *bindings.Handle, name string) error
	ListPolicies(h *bindings.Handle, pattern string) ([]string, error)

	Privileges(h *bindings.Handle) (int64, error)
	DefaultRealm(h *bindings.Handle) (string, error)
}

// nativeBackend is the cgo-backed implementation. Every error crossing
// this boundary is remapped into the public taxonomy.
type nativeBackend struct{}

func (nativeBackend) OpenPassword(client, password string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	h, err := bindings.OpenPassword(client, password, params, dbArgs)
	return h, remapError(err)
}

func (nativeBackend) OpenKeytab(client, keytab string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	h, err := bindings.OpenKeytab(client, keytab, params, dbArgs)
	return h, remapError(err)
}

func (nativeBackend) OpenCCache(client, ccache string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	h, err := bindings.OpenCCache(client, ccache, params, dbArgs)
	return h, remapError(err)
}

func (nativeBackend) OpenLocal(client string, params bindings.Params, dbArgs []string) (*bindings.Handle, error) {
	h, err := bindings.OpenLocal(client, params, dbArgs)
	return h, remapError(err)
}

func (nativeBackend) Close(h *bindings.Handle) error {
	return remapError(bindings.Close(h))
}

func (nativeBackend) GetPrincipal(h *bindings.Handle, name string) (*bindings.PrincipalEnt, error) {
	ent, err := bindings.GetPrincipal(h, name)
	return ent, remapError(err)
}

func (nativeBackend) CreatePrincipal(h *bindings.Handle, ent *bindings.PrincipalEnt, mask int64, password string) error {
	return remapError(bindings.CreatePrincipal(h, ent, mask, password))
}

func (nativeBackend) ModifyPrincipal(h *bindings.Handle, ent *bindings.PrincipalEnt, mask int64) error {
	return remapError(bindings.ModifyPrincipal(h, ent, mask))
}

func (nativeBackend) DeletePrincipal(h *bindings.Handle, name string) error {
	return remapError(bindings.DeletePrincipal(h, name))
}

func (nativeBackend) RenamePrincipal(h *bindings.Handle, oldName, newName string) error {
	return remapError(bindings.RenamePrincipal(h, oldName, newName))
}

func (nativeBackend) ChangePassword(h *bindings.Handle, name, password string) error {
	return remapError(bindings.ChangePassword(h, name, password))
}

func (nativeBackend) RandomizeKeys(h *bindings.Handle, name string, keysalts []bindings.KeySalt) error {
	return remapError(bindings.RandomizeKeys(h, name, keysalts))
}

func (nativeBackend) ListPrincipals(h *bindings.Handle, pattern string) ([]string, error) {
	names, err := bindings.ListPrincipals(h, pattern)
	return names, remapError(err)
}

func (nativeBackend) GetPolicy(h *bindings.Handle, name string) (*bindings.PolicyEnt, error) {
	ent, err := bindings.GetPolicy(h, name)
	return ent, remapError(err)
}

func (nativeBackend) CreatePolicy(h *bindings.Handle, ent *bindings.PolicyEnt, mask int64) error {
	return remapError(bindings.CreatePolicy(h, ent, mask))
}

func (nativeBackend) ModifyPolicy(h *bindings.Handle, ent *bindings.PolicyEnt, mask int64) error {
	return remapError(bindings.ModifyPolicy(h, ent, mask))
}

func (nativeBackend) DeletePolicy(h *bindings.Handle, name string) error {
	return remapError(bindings.DeletePolicy(h, name))
}

func (nativeBackend) ListPolicies(h *bindings.Handle, pattern string) ([]string, error) {
	names, err := bindings.ListPolicies(h, pattern)
	return names, remapError(err)
}

func (nativeBackend) Privileges(h *bindings.Handle) (int64, error) {
	privs, err := bindings.Privileges(h)
	return privs, remapError(err)
}

func (nativeBackend) DefaultRealm(h *bindings.Handle) (string, error) {
	realm, err := bindings.DefaultRealm(h)
	return realm, remapError(err)
}
