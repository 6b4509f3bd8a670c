//go:build !cgo || windows

package bindings

// Stub implementations for builds without a native kadm5 library. The
// package compiles everywhere; every entry point reports ErrNotBuilt.

// OpenPassword reports ErrNotBuilt.
func OpenPassword(string, string, Params, []string) (*Handle, error) { return nil, ErrNotBuilt }

// OpenKeytab reports ErrNotBuilt.
func OpenKeytab(string, string, Params, []string) (*Handle, error) { return nil, ErrNotBuilt }

// OpenCCache reports ErrNotBuilt.
func OpenCCache(string, string, Params, []string) (*Handle, error) { return nil, ErrNotBuilt }

// OpenLocal reports ErrNotBuilt.
func OpenLocal(string, Params, []string) (*Handle, error) { return nil, ErrNotBuilt }

// Close is a no-op on stub handles.
func Close(*Handle) error { return nil }

func GetPrincipal(*Handle, string) (*PrincipalEnt, error) { return nil, ErrNotBuilt }

func CreatePrincipal(*Handle, *PrincipalEnt, int64, string) error { return ErrNotBuilt }

func ModifyPrincipal(*Handle, *PrincipalEnt, int64) error { return ErrNotBuilt }

func DeletePrincipal(*Handle, string) error { return ErrNotBuilt }

func RenamePrincipal(*Handle, string, string) error { return ErrNotBuilt }

func ChangePassword(*Handle, string, string) error { return ErrNotBuilt }

func RandomizeKeys(*Handle, string, []KeySalt) error { return ErrNotBuilt }

func ListPrincipals(*Handle, string) ([]string, error) { return nil, ErrNotBuilt }

func ListPolicies(*Handle, string) ([]string, error) { return nil, ErrNotBuilt }

func GetPolicy(*Handle, string) (*PolicyEnt, error) { return nil, ErrNotBuilt }

func CreatePolicy(*Handle, *PolicyEnt, int64) error { return ErrNotBuilt }

func ModifyPolicy(*Handle, *PolicyEnt, int64) error { return ErrNotBuilt }

func DeletePolicy(*Handle, string) error { return ErrNotBuilt }

func Privileges(*Handle) (int64, error) { return 0, ErrNotBuilt }

func DefaultRealm(*Handle) (string, error) { return "", ErrNotBuilt }
