package kadm5

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/authentik-community/kadmin-go/internal/bindings"
	"github.com/authentik-community/kadmin-go/pkg/kadm5/logging"
)

// Privileges are the ACL bits granted to the authenticated client, as
// reported by the admin server.
type Privileges int64

const (
	PrivInquire Privileges = 0x01
	PrivAdd     Privileges = 0x02
	PrivModify  Privileges = 0x04
	PrivDelete  Privileges = 0x08
)

// Has reports whether all bits in p2 are granted.
func (p Privileges) Has(p2 Privileges) bool { return p&p2 == p2 }

type options struct {
	params *Params
	dbArgs *DbArgs
	logger logging.Logger
	be     backend
}

// Option configures a client at construction time.
type Option func(*options)

// WithParams supplies kadm5 configuration overrides.
func WithParams(p *Params) Option {
	return func(o *options) { o.params = p }
}

// WithDbArgs supplies database-specific arguments.
func WithDbArgs(a *DbArgs) Option {
	return func(o *options) { o.dbArgs = a }
}

// WithLogger supplies the logger the client reports through. Defaults
// to a slog-backed logger on slog.Default().
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// withBackend substitutes the native backend. Tests use this to run the
// worker against an in-memory fake.
func withBackend(be backend) Option {
	return func(o *options) { o.be = be }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.New(nil)
	}
	if o.be == nil {
		o.be = nativeBackend{}
	}
	return o
}

func (o options) rawParams() bindings.Params {
	if o.params == nil {
		return bindings.Params{}
	}
	return o.params.raw
}

func (o options) rawDbArgs() []string {
	if o.dbArgs == nil {
		return nil
	}
	return o.dbArgs.args
}

// KAdmin is a client for one kadm5 session. It is safe for concurrent
// use; operations from all goroutines are serialized onto the session's
// dedicated worker thread. Close releases the session and its thread.
type KAdmin struct {
	mu      sync.RWMutex
	closed  bool
	w       *worker
	be      backend
	variant Variant
	log     logging.Logger
}

// NewWithPassword opens a session by authenticating client with
// password against the admin server.
func NewWithPassword(client, password string, opts ...Option) (*KAdmin, error) {
	return open(opts, func(be backend, o options) (*bindings.Handle, error) {
		return be.OpenPassword(client, password, o.rawParams(), o.rawDbArgs())
	}, false)
}

// NewWithKeytab opens a session by authenticating client with the key
// stored in keytab. An empty keytab means the default keytab.
func NewWithKeytab(client, keytab string, opts ...Option) (*KAdmin, error) {
	return open(opts, func(be backend, o options) (*bindings.Handle, error) {
		return be.OpenKeytab(client, keytab, o.rawParams(), o.rawDbArgs())
	}, false)
}

// NewWithCCache opens a session using credentials already present in
// ccache. An empty ccache means the default credential cache; an empty
// client means the cache's default principal.
func NewWithCCache(client, ccache string, opts ...Option) (*KAdmin, error) {
	return open(opts, func(be backend, o options) (*bindings.Handle, error) {
		return be.OpenCCache(client, ccache, o.rawParams(), o.rawDbArgs())
	}, false)
}

// NewWithLocal opens a session directly against the realm database,
// bypassing the admin server. Requires a server-flavor library.
func NewWithLocal(client string, opts ...Option) (*KAdmin, error) {
	return open(opts, func(be backend, o options) (*bindings.Handle, error) {
		return be.OpenLocal(client, o.rawParams(), o.rawDbArgs())
	}, true)
}

func open(opts []Option, openFn func(backend, options) (*bindings.Handle, error), needServer bool) (*KAdmin, error) {
	o := buildOptions(opts)
	variant := VariantUnknown
	if _, native := o.be.(nativeBackend); native {
		v, err := ResolveVariant()
		if err != nil {
			return nil, err
		}
		if needServer && !v.IsServer() {
			return nil, &LibraryMismatchError{
				Detail: "local database access requires a server-flavor library, linked flavor is " + v.String(),
			}
		}
		variant = v
	}
	w, err := startWorker(o.be, func(be backend) (*bindings.Handle, error) {
		return openFn(be, o)
	}, o.logger)
	if err != nil {
		return nil, err
	}
	return &KAdmin{w: w, be: o.be, variant: variant, log: o.logger}, nil
}

// Variant reports which native library flavor this client runs on.
func (k *KAdmin) Variant() Variant { return k.variant }

// Close shuts down the session: in-flight operations finish, the native
// handle is released on the worker thread, and the thread exits. A
// second Close reports ErrClientClosed.
func (k *KAdmin) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return ErrClientClosed
	}
	k.closed = true
	k.mu.Unlock()
	return k.w.stop()
}

// do runs one operation on the worker thread. The read lock is held for
// the whole round trip so Close cannot tear the worker down underneath
// an in-flight command.
func (k *KAdmin) do(ctx context.Context, run func(h *bindings.Handle) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return nil, ErrClientClosed
	}
	return k.w.submit(run)
}

// absent reports whether err is the given "does not exist" status, so
// lookups can turn it into a plain nil result.
func absent(err error, code Code) bool {
	var kerr *KAdminError
	return errors.As(err, &kerr) && kerr.Code == code
}

// GetPrincipal looks up a principal by name. The name may omit the
// realm, in which case the session's realm applies. An absent principal
// yields a nil snapshot and no error.
func (k *KAdmin) GetPrincipal(ctx context.Context, name string) (*Principal, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	v, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return k.be.GetPrincipal(h, name)
	})
	if err != nil {
		if absent(err, CodeUnknownPrincipal) {
			return nil, nil
		}
		return nil, err
	}
	return principalFromEnt(v.(*bindings.PrincipalEnt))
}

// PrincipalExists reports whether a principal exists in the realm.
func (k *KAdmin) PrincipalExists(ctx context.Context, name string) (bool, error) {
	p, err := k.GetPrincipal(ctx, name)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// AddPrincipal creates the principal staged in b. With the default
// random key the principal is created with a throwaway password that is
// immediately replaced by randomized keys, all on the worker thread.
func (k *KAdmin) AddPrincipal(ctx context.Context, b *PrincipalBuilder) error {
	ent, mask, err := b.build()
	if err != nil {
		return err
	}
	keyMode, password := b.keyMode, b.password
	keysalts := b.keysalts.raw()
	k.log.Debug(ctx, "creating principal", "principal", ent.Name, logging.Redacted("password"))
	_, err = k.do(ctx, func(h *bindings.Handle) (any, error) {
		be := k.be
		switch keyMode {
		case bindings.KeyPassword:
			return nil, be.CreatePrincipal(h, ent, mask, password)
		case bindings.KeyNone:
			return nil, be.CreatePrincipal(h, ent, mask, "")
		default:
			throwaway, err := randomPassword()
			if err != nil {
				return nil, err
			}
			if err := be.CreatePrincipal(h, ent, mask, throwaway); err != nil {
				return nil, err
			}
			return nil, be.RandomizeKeys(h, ent.Name, keysalts)
		}
	})
	return err
}

// ModifyPrincipal applies the changes staged in m.
func (k *KAdmin) ModifyPrincipal(ctx context.Context, m *PrincipalModifier) error {
	ent, mask, err := m.build()
	if err != nil {
		return err
	}
	_, err = k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.ModifyPrincipal(h, ent, mask)
	})
	return err
}

// DeletePrincipal removes a principal.
func (k *KAdmin) DeletePrincipal(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.DeletePrincipal(h, name)
	})
	return err
}

// RenamePrincipal renames a principal, keys included. Principals whose
// keys use a name-derived salt cannot be renamed.
func (k *KAdmin) RenamePrincipal(ctx context.Context, oldName, newName string) error {
	if err := checkName(oldName); err != nil {
		return err
	}
	if err := checkName(newName); err != nil {
		return err
	}
	_, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.RenamePrincipal(h, oldName, newName)
	})
	return err
}

// ChangePassword sets a new password for a principal, deriving fresh
// keys from it.
func (k *KAdmin) ChangePassword(ctx context.Context, name, password string) error {
	if err := checkName(name); err != nil {
		return err
	}
	k.log.Debug(ctx, "changing password", "principal", name, logging.Redacted("password"))
	_, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.ChangePassword(h, name, password)
	})
	return err
}

// RandomizeKeys replaces a principal's keys with randomized ones,
// bumping the key version number. A non-nil keysalts set restricts the
// new keys to those enctype/salt tuples; nil keeps the realm's
// defaults. Heimdal libraries ignore the restriction.
func (k *KAdmin) RandomizeKeys(ctx context.Context, name string, keysalts *KeySalts) error {
	if err := checkName(name); err != nil {
		return err
	}
	raw := keysalts.raw()
	_, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.RandomizeKeys(h, name, raw)
	})
	return err
}

// ListPrincipals returns the names of principals matching pattern, in
// the server's order. An empty pattern matches everything.
func (k *KAdmin) ListPrincipals(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if err := checkName(pattern); err != nil {
		return nil, err
	}
	v, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return k.be.ListPrincipals(h, pattern)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// GetPolicy looks up a policy by name. An absent policy yields a nil
// snapshot and no error.
func (k *KAdmin) GetPolicy(ctx context.Context, name string) (*Policy, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	v, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return k.be.GetPolicy(h, name)
	})
	if err != nil {
		if absent(err, CodeUnknownPolicy) {
			return nil, nil
		}
		return nil, err
	}
	return policyFromEnt(v.(*bindings.PolicyEnt))
}

// PolicyExists reports whether a policy exists.
func (k *KAdmin) PolicyExists(ctx context.Context, name string) (bool, error) {
	pol, err := k.GetPolicy(ctx, name)
	if err != nil {
		return false, err
	}
	return pol != nil, nil
}

// AddPolicy creates the policy staged in b.
func (k *KAdmin) AddPolicy(ctx context.Context, b *PolicyBuilder) error {
	ent, mask, err := b.spec.build()
	if err != nil {
		return err
	}
	_, err = k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.CreatePolicy(h, ent, mask)
	})
	return err
}

// ModifyPolicy applies the changes staged in m.
func (k *KAdmin) ModifyPolicy(ctx context.Context, m *PolicyModifier) error {
	ent, mask, err := m.spec.build()
	if err != nil {
		return err
	}
	_, err = k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.ModifyPolicy(h, ent, mask)
	})
	return err
}

// DeletePolicy removes a policy. The policy must not be referenced by
// any principal.
func (k *KAdmin) DeletePolicy(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	_, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return nil, k.be.DeletePolicy(h, name)
	})
	return err
}

// ListPolicies returns the names of policies matching pattern. An
// empty pattern matches everything.
func (k *KAdmin) ListPolicies(ctx context.Context, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if err := checkName(pattern); err != nil {
		return nil, err
	}
	v, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return k.be.ListPolicies(h, pattern)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Privileges reports the ACL bits the admin server granted this
// session.
func (k *KAdmin) Privileges(ctx context.Context) (Privileges, error) {
	v, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return k.be.Privileges(h)
	})
	if err != nil {
		return 0, err
	}
	return Privileges(v.(int64)), nil
}

// DefaultRealm reports the session's realm.
func (k *KAdmin) DefaultRealm(ctx context.Context) (string, error) {
	v, err := k.do(ctx, func(h *bindings.Handle) (any, error) {
		return k.be.DefaultRealm(h)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// randomPassword generates a throwaway password for principals created
// with randomized keys. It never leaves the worker thread and is
// discarded as soon as the keys are randomized.
func randomPassword() (string, error) {
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
