package kadm5

import "github.com/authentik-community/kadmin-go/internal/bindings"

// Params carries optional kadm5 configuration overrides. Fields not set
// on the builder are taken from the library's profile (krb5.conf and
// kdc.conf).
type Params struct {
	raw bindings.Params
}

// ParamsBuilder assembles a Params value.
type ParamsBuilder struct {
	raw bindings.Params
}

// NewParams starts an empty parameter set.
func NewParams() *ParamsBuilder {
	return &ParamsBuilder{}
}

// Realm sets the realm to administer.
func (b *ParamsBuilder) Realm(realm string) *ParamsBuilder {
	b.raw.Realm = realm
	b.raw.Mask |= bindings.ParamRealm
	return b
}

// AdminServer sets the admin server host to contact, overriding the
// profile's admin_server.
func (b *ParamsBuilder) AdminServer(host string) *ParamsBuilder {
	b.raw.AdminServer = host
	b.raw.Mask |= bindings.ParamAdminServer
	return b
}

// KadmindPort sets the kadmind port.
func (b *ParamsBuilder) KadmindPort(port int) *ParamsBuilder {
	b.raw.KadmindPort = port
	b.raw.Mask |= bindings.ParamKadmindPort
	return b
}

// KpasswdPort sets the kpasswd port. Ignored by Heimdal.
func (b *ParamsBuilder) KpasswdPort(port int) *ParamsBuilder {
	b.raw.KpasswdPort = port
	b.raw.Mask |= bindings.ParamKpasswdPort
	return b
}

// Build finalizes the parameter set.
func (b *ParamsBuilder) Build() (*Params, error) {
	for _, s := range []string{b.raw.Realm, b.raw.AdminServer} {
		if err := checkName(s); err != nil {
			return nil, err
		}
	}
	return &Params{raw: b.raw}, nil
}
