package commands

import (
	"fmt"
	"os"
	"syscall"

	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/authentik-community/kadmin-go/pkg/kadm5"
)

// resolveRealm returns the realm to administer: the --realm flag when
// given, otherwise the default realm from the krb5 configuration.
func resolveRealm() (string, error) {
	if realm := viper.GetString("realm"); realm != "" {
		return realm, nil
	}
	path := os.Getenv("KRB5_CONFIG")
	if path == "" {
		path = "/etc/krb5.conf"
	}
	cfg, err := krb5config.Load(path)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", path, err)
	}
	if cfg.LibDefaults.DefaultRealm == "" {
		return "", fmt.Errorf("no default realm in %s, use --realm", path)
	}
	return cfg.LibDefaults.DefaultRealm, nil
}

// resolvePrincipal returns the client principal: the --principal flag
// when given, otherwise <user>/admin@<realm> following the kadmin
// convention.
func resolvePrincipal(realm string) string {
	if principal := viper.GetString("principal"); principal != "" {
		return principal
	}
	user := os.Getenv("USER")
	if user == "" {
		user = "root"
	}
	return user + "/admin@" + realm
}

func buildParams(realm string) (*kadm5.Params, error) {
	b := kadm5.NewParams().Realm(realm)
	if server := viper.GetString("admin-server"); server != "" {
		b = b.AdminServer(server)
	}
	if port := viper.GetInt("kadmind-port"); port != 0 {
		b = b.KadmindPort(port)
	}
	return b.Build()
}

func promptPassword(principal string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s: ", principal)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// newClient opens an administration session using the credentials
// selected by the global flags.
func newClient() (*kadm5.KAdmin, error) {
	realm, err := resolveRealm()
	if err != nil {
		return nil, err
	}
	principal := resolvePrincipal(realm)
	params, err := buildParams(realm)
	if err != nil {
		return nil, err
	}
	opts := []kadm5.Option{kadm5.WithParams(params)}

	switch {
	case viper.GetBool("local"):
		return kadm5.NewWithLocal(principal, opts...)
	case viper.GetString("keytab") != "":
		return kadm5.NewWithKeytab(principal, viper.GetString("keytab"), opts...)
	case viper.GetBool("use-ccache"):
		return kadm5.NewWithCCache(principal, "", opts...)
	default:
		password, err := promptPassword(principal)
		if err != nil {
			return nil, err
		}
		return kadm5.NewWithPassword(principal, password, opts...)
	}
}
