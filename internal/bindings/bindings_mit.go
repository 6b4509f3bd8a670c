//go:build cgo && !windows && !kadm5_heimdal

package bindings

/*
#include <stdlib.h>
#include <string.h>
#include <krb5.h>
#include <kadm5/admin.h>
#include <kadm5/kadm_err.h>

static char *kadmin_go_admin_service = KADM5_ADMIN_SERVICE;
*/
import "C"

import (
	"unicode/utf8"
	"unsafe"
)

func init() {
	caps.LibraryAPIVersion = int(C.KADM5_API_VERSION_2)
}

// goString converts a C string owned by the native library into a Go
// string without taking ownership.
func goString(s *C.char) (string, error) {
	if s == nil {
		return "", ErrNullPointer
	}
	out := C.GoString(s)
	if !utf8.ValidString(out) {
		return "", ErrInvalidCString
	}
	return out, nil
}

// cString allocates a NUL-terminated copy of s. The caller frees it.
func cString(s string) (*C.char, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			return nil, ErrInteriorNul
		}
	}
	return C.CString(s), nil
}

func freeCString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

func krbErr(h *Handle, code C.krb5_error_code) error {
	if code == 0 {
		return nil
	}
	msg := "unknown error"
	raw := C.krb5_get_error_message((C.krb5_context)(h.ctx), code)
	if raw != nil {
		if s, err := goString(raw); err == nil {
			msg = s
		}
		C.krb5_free_error_message((C.krb5_context)(h.ctx), raw)
	}
	return &KrbError{Code: int32(code), Message: msg}
}

func kadmErr(h *Handle, code C.kadm5_ret_t) error {
	if code == 0 {
		return nil
	}
	// kadm5 reuses the krb5 error space for anything outside its own
	// com_err table; only report a KAdmError for codes the table owns.
	if int64(code) >= int64(C.KADM5_FAILURE) && int64(code) <= int64(C.KADM5_FAILURE)+127 {
		return &KAdmError{Code: int64(code)}
	}
	return krbErr(h, C.krb5_error_code(code))
}

// parsedName wraps a krb5_principal that must be freed against the
// handle's context.
func parseName(h *Handle, name string) (C.krb5_principal, error) {
	cname, err := cString(name)
	if err != nil {
		return nil, err
	}
	defer freeCString(cname)
	var princ C.krb5_principal
	if err := krbErr(h, C.krb5_parse_name((C.krb5_context)(h.ctx), cname, &princ)); err != nil {
		return nil, err
	}
	return princ, nil
}

func freeName(h *Handle, princ C.krb5_principal) {
	if princ != nil {
		C.krb5_free_principal((C.krb5_context)(h.ctx), princ)
	}
}

func unparseName(h *Handle, princ C.krb5_principal) (string, error) {
	if princ == nil {
		return "", ErrNullPointer
	}
	var raw *C.char
	if err := krbErr(h, C.krb5_unparse_name((C.krb5_context)(h.ctx), princ, &raw)); err != nil {
		return "", err
	}
	name, err := goString(raw)
	C.krb5_free_unparsed_name((C.krb5_context)(h.ctx), raw)
	return name, err
}

// configParams materializes a kadm5_config_params plus the C strings it
// borrows. free releases those strings.
type configParams struct {
	raw  C.kadm5_config_params
	held []*C.char
}

func (c *configParams) free() {
	for _, s := range c.held {
		freeCString(s)
	}
}

func buildParams(p Params) (*configParams, error) {
	out := &configParams{}
	if p.Mask&ParamRealm != 0 {
		s, err := cString(p.Realm)
		if err != nil {
			return nil, err
		}
		out.held = append(out.held, s)
		out.raw.realm = s
		out.raw.mask |= C.KADM5_CONFIG_REALM
	}
	if p.Mask&ParamAdminServer != 0 {
		s, err := cString(p.AdminServer)
		if err != nil {
			out.free()
			return nil, err
		}
		out.held = append(out.held, s)
		out.raw.admin_server = s
		out.raw.mask |= C.KADM5_CONFIG_ADMIN_SERVER
	}
	if p.Mask&ParamKadmindPort != 0 {
		out.raw.kadmind_port = C.int(p.KadmindPort)
		out.raw.mask |= C.KADM5_CONFIG_KADMIND_PORT
	}
	if p.Mask&ParamKpasswdPort != 0 {
		out.raw.kpasswd_port = C.int(p.KpasswdPort)
		out.raw.mask |= C.KADM5_CONFIG_KPASSWD_PORT
	}
	return out, nil
}

// dbArgsArray builds the NULL-terminated char** expected by the init
// calls. free releases every element.
type dbArgsArray struct {
	raw  **C.char
	held []*C.char
}

func (d *dbArgsArray) free() {
	for _, s := range d.held {
		freeCString(s)
	}
	if d.raw != nil {
		C.free(unsafe.Pointer(d.raw))
	}
}

func buildDbArgs(args []string) (*dbArgsArray, error) {
	out := &dbArgsArray{}
	arr := (**C.char)(C.calloc(C.size_t(len(args)+1), C.size_t(unsafe.Sizeof(uintptr(0)))))
	if arr == nil {
		return nil, ErrNullPointer
	}
	out.raw = arr
	slots := unsafe.Slice(arr, len(args)+1)
	for i, arg := range args {
		s, err := cString(arg)
		if err != nil {
			out.free()
			return nil, err
		}
		out.held = append(out.held, s)
		slots[i] = s
	}
	slots[len(args)] = nil
	return out, nil
}

func newContext() (*Handle, error) {
	h := &Handle{}
	var ctx C.krb5_context
	code := C.kadm5_init_krb5_context(&ctx)
	if code != 0 {
		return nil, &KrbError{Code: int32(code), Message: "failed to initialize krb5 context"}
	}
	h.ctx = unsafe.Pointer(ctx)
	return h, nil
}

func (h *Handle) destroyContext() {
	if h.ctx != nil {
		C.krb5_free_context((C.krb5_context)(h.ctx))
		h.ctx = nil
	}
}

type initFn func(h *Handle, params *C.kadm5_config_params, dbArgs **C.char, out *unsafe.Pointer) C.kadm5_ret_t

func open(p Params, dbArgs []string, fn initFn) (*Handle, error) {
	h, err := newContext()
	if err != nil {
		return nil, err
	}
	cp, err := buildParams(p)
	if err != nil {
		h.destroyContext()
		return nil, err
	}
	defer cp.free()
	da, err := buildDbArgs(dbArgs)
	if err != nil {
		h.destroyContext()
		return nil, err
	}
	defer da.free()

	var srv unsafe.Pointer
	code := fn(h, &cp.raw, da.raw, &srv)
	if err := kadmErr(h, code); err != nil {
		h.destroyContext()
		return nil, err
	}
	h.srv = srv
	return h, nil
}

// OpenPassword authenticates against the admin server with a password.
func OpenPassword(client, password string, p Params, dbArgs []string) (*Handle, error) {
	return open(p, dbArgs, func(h *Handle, params *C.kadm5_config_params, da **C.char, out *unsafe.Pointer) C.kadm5_ret_t {
		cclient, err := cString(client)
		if err != nil {
			return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
		}
		defer freeCString(cclient)
		cpass, err := cString(password)
		if err != nil {
			return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
		}
		defer freeCString(cpass)
		return C.kadm5_init_with_password(
			(C.krb5_context)(h.ctx), cclient, cpass, kadminGoAdminService(),
			params, C.KADM5_STRUCT_VERSION, C.KADM5_API_VERSION_2, da,
			(*unsafe.Pointer)(out))
	})
}

// OpenKeytab authenticates with a key from a keytab file.
func OpenKeytab(client, keytab string, p Params, dbArgs []string) (*Handle, error) {
	return open(p, dbArgs, func(h *Handle, params *C.kadm5_config_params, da **C.char, out *unsafe.Pointer) C.kadm5_ret_t {
		cclient, err := cString(client)
		if err != nil {
			return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
		}
		defer freeCString(cclient)
		ckeytab, err := cString(keytab)
		if err != nil {
			return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
		}
		defer freeCString(ckeytab)
		return C.kadm5_init_with_skey(
			(C.krb5_context)(h.ctx), cclient, ckeytab, kadminGoAdminService(),
			params, C.KADM5_STRUCT_VERSION, C.KADM5_API_VERSION_2, da,
			(*unsafe.Pointer)(out))
	})
}

// OpenCCache authenticates with an existing credential cache. An empty
// ccache name selects the default cache.
func OpenCCache(client, ccache string, p Params, dbArgs []string) (*Handle, error) {
	return open(p, dbArgs, func(h *Handle, params *C.kadm5_config_params, da **C.char, out *unsafe.Pointer) C.kadm5_ret_t {
		var cc C.krb5_ccache
		var code C.krb5_error_code
		if ccache != "" {
			cname, err := cString(ccache)
			if err != nil {
				return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
			}
			code = C.krb5_cc_resolve((C.krb5_context)(h.ctx), cname, &cc)
			freeCString(cname)
		} else {
			code = C.krb5_cc_default((C.krb5_context)(h.ctx), &cc)
		}
		if code != 0 {
			return C.kadm5_ret_t(code)
		}
		defer C.krb5_cc_close((C.krb5_context)(h.ctx), cc)

		cclient, err := cString(client)
		if err != nil {
			return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
		}
		defer freeCString(cclient)
		return C.kadm5_init_with_creds(
			(C.krb5_context)(h.ctx), cclient, cc, kadminGoAdminService(),
			params, C.KADM5_STRUCT_VERSION, C.KADM5_API_VERSION_2, da,
			(*unsafe.Pointer)(out))
	})
}

// OpenLocal opens the realm database directly, bypassing kadmind. Only
// meaningful when the server library is linked.
func OpenLocal(client string, p Params, dbArgs []string) (*Handle, error) {
	if !caps.MitServer {
		return nil, ErrNotBuilt
	}
	return open(p, dbArgs, func(h *Handle, params *C.kadm5_config_params, da **C.char, out *unsafe.Pointer) C.kadm5_ret_t {
		cclient, err := cString(client)
		if err != nil {
			return C.kadm5_ret_t(C.KADM5_BAD_CLIENT_PARAMS)
		}
		defer freeCString(cclient)
		return C.kadm5_init_with_creds(
			(C.krb5_context)(h.ctx), cclient, nil, kadminGoAdminService(),
			params, C.KADM5_STRUCT_VERSION, C.KADM5_API_VERSION_2, da,
			(*unsafe.Pointer)(out))
	})
}

func kadminGoAdminService() *C.char {
	return C.kadmin_go_admin_service
}

// Close flushes and destroys the session, then frees the context. Safe
// to call once per Handle; the Handle must not be used afterwards.
func Close(h *Handle) error {
	if h == nil {
		return nil
	}
	var err error
	if h.srv != nil {
		C.kadm5_flush(h.srv)
		if code := C.kadm5_destroy(h.srv); code != 0 {
			err = &KAdmError{Code: int64(code)}
		}
		h.srv = nil
	}
	h.destroyContext()
	return err
}

// GetPrincipal fetches a principal entry. ErrUnknownPrincipal is
// returned for absent principals.
func GetPrincipal(h *Handle, name string) (*PrincipalEnt, error) {
	princ, err := parseName(h, name)
	if err != nil {
		return nil, err
	}
	defer freeName(h, princ)

	var ent C.kadm5_principal_ent_rec
	code := C.kadm5_get_principal(h.srv, princ, &ent,
		C.long(C.KADM5_PRINCIPAL_NORMAL_MASK|C.KADM5_KEY_DATA|C.KADM5_TL_DATA))
	if int64(code) == int64(C.KADM5_UNK_PRINC) {
		return nil, ErrUnknownPrincipal
	}
	if err := kadmErr(h, code); err != nil {
		return nil, err
	}
	out, err := principalEntFromRaw(h, &ent)
	if ferr := kadmErr(h, C.kadm5_free_principal_ent(h.srv, &ent)); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func principalEntFromRaw(h *Handle, ent *C.kadm5_principal_ent_rec) (*PrincipalEnt, error) {
	name, err := unparseName(h, ent.principal)
	if err != nil {
		return nil, err
	}
	modName := ""
	if ent.mod_name != nil {
		if modName, err = unparseName(h, ent.mod_name); err != nil {
			return nil, err
		}
	}
	policy := ""
	if ent.policy != nil {
		if policy, err = goString(ent.policy); err != nil {
			return nil, err
		}
	}
	out := &PrincipalEnt{
		Name:             name,
		ExpireTime:       Timestamp(ent.princ_expire_time),
		LastPwdChange:    Timestamp(ent.last_pwd_change),
		PwExpiration:     Timestamp(ent.pw_expiration),
		MaxLife:          DeltaT(ent.max_life),
		ModName:          modName,
		ModDate:          Timestamp(ent.mod_date),
		Attributes:       int32(ent.attributes),
		Kvno:             uint32(ent.kvno),
		Mkvno:            uint32(ent.mkvno),
		Policy:           policy,
		AuxAttributes:    int64(ent.aux_attributes),
		MaxRenewableLife: DeltaT(ent.max_renewable_life),
		LastSuccess:      Timestamp(ent.last_success),
		LastFailed:       Timestamp(ent.last_failed),
		FailAuthCount:    uint32(ent.fail_auth_count),
	}
	for tl := ent.tl_data; tl != nil; tl = tl.tl_data_next {
		out.TlData = append(out.TlData, TlDataEnt{
			Type:     int16(tl.tl_data_type),
			Contents: C.GoBytes(unsafe.Pointer(tl.tl_data_contents), C.int(tl.tl_data_length)),
		})
	}
	if ent.n_key_data > 0 && ent.key_data != nil {
		kds := unsafe.Slice(ent.key_data, int(ent.n_key_data))
		for i := range kds {
			kd := &kds[i]
			entKey := KeyDataEnt{
				Kvno:    uint32(kd.key_data_kvno),
				Enctype: int32(kd.key_data_type[0]),
				Key:     C.GoBytes(unsafe.Pointer(kd.key_data_contents[0]), C.int(kd.key_data_length[0])),
			}
			if kd.key_data_ver > 1 {
				entKey.SaltType = int32(kd.key_data_type[1])
				if kd.key_data_contents[1] != nil {
					entKey.Salt = C.GoBytes(unsafe.Pointer(kd.key_data_contents[1]), C.int(kd.key_data_length[1]))
				}
			}
			out.KeyData = append(out.KeyData, entKey)
		}
	}
	return out, nil
}

// principalEntToRaw fills a kadm5_principal_ent_rec from a PrincipalEnt.
// The returned cleanup releases everything the entry borrows.
func principalEntToRaw(h *Handle, in *PrincipalEnt) (*C.kadm5_principal_ent_rec, func(), error) {
	ent := (*C.kadm5_principal_ent_rec)(C.calloc(1, C.sizeof_kadm5_principal_ent_rec))
	if ent == nil {
		return nil, nil, ErrNullPointer
	}
	var held []*C.char
	cleanup := func() {
		for _, s := range held {
			freeCString(s)
		}
		if ent.principal != nil {
			freeName(h, ent.principal)
		}
		C.free(unsafe.Pointer(ent))
	}

	princ, err := parseName(h, in.Name)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	ent.principal = princ
	ent.princ_expire_time = C.krb5_timestamp(in.ExpireTime)
	ent.pw_expiration = C.krb5_timestamp(in.PwExpiration)
	ent.max_life = C.krb5_deltat(in.MaxLife)
	ent.attributes = C.krb5_flags(in.Attributes)
	ent.max_renewable_life = C.krb5_deltat(in.MaxRenewableLife)
	if in.Policy != "" {
		s, err := cString(in.Policy)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		held = append(held, s)
		ent.policy = s
	}
	return ent, cleanup, nil
}

// CreatePrincipal creates a principal. The mask selects which entry
// fields are meaningful; password may be empty for KeyNone.
func CreatePrincipal(h *Handle, in *PrincipalEnt, mask int64, password string) error {
	ent, cleanup, err := principalEntToRaw(h, in)
	if err != nil {
		return err
	}
	defer cleanup()
	var cpass *C.char
	if password != "" {
		if cpass, err = cString(password); err != nil {
			return err
		}
		defer freeCString(cpass)
	}
	return kadmErr(h, C.kadm5_create_principal(h.srv, ent, C.long(mask), cpass))
}

// ModifyPrincipal updates the masked fields of an existing principal.
func ModifyPrincipal(h *Handle, in *PrincipalEnt, mask int64) error {
	ent, cleanup, err := principalEntToRaw(h, in)
	if err != nil {
		return err
	}
	defer cleanup()
	return kadmErr(h, C.kadm5_modify_principal(h.srv, ent, C.long(mask)))
}

// DeletePrincipal removes a principal from the realm database.
func DeletePrincipal(h *Handle, name string) error {
	princ, err := parseName(h, name)
	if err != nil {
		return err
	}
	defer freeName(h, princ)
	return kadmErr(h, C.kadm5_delete_principal(h.srv, princ))
}

// RenamePrincipal renames a principal, keys permitting.
func RenamePrincipal(h *Handle, oldName, newName string) error {
	src, err := parseName(h, oldName)
	if err != nil {
		return err
	}
	defer freeName(h, src)
	dst, err := parseName(h, newName)
	if err != nil {
		return err
	}
	defer freeName(h, dst)
	return kadmErr(h, C.kadm5_rename_principal(h.srv, src, dst))
}

// ChangePassword sets a principal's password.
func ChangePassword(h *Handle, name, password string) error {
	princ, err := parseName(h, name)
	if err != nil {
		return err
	}
	defer freeName(h, princ)
	cpass, err := cString(password)
	if err != nil {
		return err
	}
	defer freeCString(cpass)
	return kadmErr(h, C.kadm5_chpass_principal(h.srv, princ, cpass))
}

// RandomizeKeys replaces a principal's keys with random ones. A
// non-empty keysalts list restricts the new keys to those tuples.
func RandomizeKeys(h *Handle, name string, keysalts []KeySalt) error {
	princ, err := parseName(h, name)
	if err != nil {
		return err
	}
	defer freeName(h, princ)
	var keys *C.krb5_keyblock
	var nKeys C.int
	var ret C.kadm5_ret_t
	if len(keysalts) == 0 {
		ret = C.kadm5_randkey_principal(h.srv, princ, &keys, &nKeys)
	} else {
		mem := C.malloc(C.size_t(len(keysalts)) * C.size_t(unsafe.Sizeof(C.krb5_key_salt_tuple{})))
		defer C.free(mem)
		tuples := unsafe.Slice((*C.krb5_key_salt_tuple)(mem), len(keysalts))
		for i, ks := range keysalts {
			tuples[i].ks_enctype = C.krb5_enctype(ks.Enctype)
			tuples[i].ks_salttype = C.krb5_int32(ks.SaltType)
		}
		ret = C.kadm5_randkey_principal_3(h.srv, princ, 0, C.int(len(keysalts)),
			(*C.krb5_key_salt_tuple)(mem), &keys, &nKeys)
	}
	if err := kadmErr(h, ret); err != nil {
		return err
	}
	if keys != nil {
		blocks := unsafe.Slice(keys, int(nKeys))
		for i := range blocks {
			C.krb5_free_keyblock_contents((C.krb5_context)(h.ctx), &blocks[i])
		}
		C.free(unsafe.Pointer(keys))
	}
	return nil
}

func nameList(h *Handle, raw **C.char, count C.int) ([]string, error) {
	if raw == nil && count > 0 {
		return nil, ErrNullPointer
	}
	names := make([]string, 0, int(count))
	if raw != nil {
		for _, p := range unsafe.Slice(raw, int(count)) {
			name, err := goString(p)
			if err != nil {
				C.kadm5_free_name_list(h.srv, raw, count)
				return nil, err
			}
			names = append(names, name)
		}
		C.kadm5_free_name_list(h.srv, raw, count)
	}
	return names, nil
}

// ListPrincipals returns the names matching a shell-style glob query.
func ListPrincipals(h *Handle, query string) ([]string, error) {
	cquery, err := cString(query)
	if err != nil {
		return nil, err
	}
	defer freeCString(cquery)
	var raw **C.char
	var count C.int
	if err := kadmErr(h, C.kadm5_get_principals(h.srv, cquery, &raw, &count)); err != nil {
		return nil, err
	}
	return nameList(h, raw, count)
}

// ListPolicies returns the policy names matching a shell-style glob.
func ListPolicies(h *Handle, query string) ([]string, error) {
	cquery, err := cString(query)
	if err != nil {
		return nil, err
	}
	defer freeCString(cquery)
	var raw **C.char
	var count C.int
	if err := kadmErr(h, C.kadm5_get_policies(h.srv, cquery, &raw, &count)); err != nil {
		return nil, err
	}
	return nameList(h, raw, count)
}

// GetPolicy fetches a policy entry. ErrUnknownPolicy is returned for
// absent policies.
func GetPolicy(h *Handle, name string) (*PolicyEnt, error) {
	cname, err := cString(name)
	if err != nil {
		return nil, err
	}
	defer freeCString(cname)
	var ent C.kadm5_policy_ent_rec
	code := C.kadm5_get_policy(h.srv, cname, &ent)
	if int64(code) == int64(C.KADM5_UNK_POLICY) {
		return nil, ErrUnknownPolicy
	}
	if err := kadmErr(h, code); err != nil {
		return nil, err
	}
	polName, err := goString(ent.policy)
	if err != nil {
		C.kadm5_free_policy_ent(h.srv, &ent)
		return nil, err
	}
	out := &PolicyEnt{
		Name:              polName,
		PwMinLife:         int64(ent.pw_min_life),
		PwMaxLife:         int64(ent.pw_max_life),
		PwMinLength:       int64(ent.pw_min_length),
		PwMinClasses:      int64(ent.pw_min_classes),
		PwHistoryNum:      int64(ent.pw_history_num),
		PolicyRefcnt:      int64(ent.policy_refcnt),
		PwMaxFail:         uint32(ent.pw_max_fail),
		PwFailcntInterval: DeltaT(ent.pw_failcnt_interval),
		PwLockoutDuration: DeltaT(ent.pw_lockout_duration),
		Attributes:        int32(ent.attributes),
		MaxLife:           DeltaT(ent.max_life),
		MaxRenewableLife:  DeltaT(ent.max_renewable_life),
	}
	if err := kadmErr(h, C.kadm5_free_policy_ent(h.srv, &ent)); err != nil {
		return nil, err
	}
	return out, nil
}

func policyEntToRaw(in *PolicyEnt) (*C.kadm5_policy_ent_rec, func(), error) {
	ent := (*C.kadm5_policy_ent_rec)(C.calloc(1, C.sizeof_kadm5_policy_ent_rec))
	if ent == nil {
		return nil, nil, ErrNullPointer
	}
	cname, err := cString(in.Name)
	if err != nil {
		C.free(unsafe.Pointer(ent))
		return nil, nil, err
	}
	cleanup := func() {
		freeCString(cname)
		C.free(unsafe.Pointer(ent))
	}
	ent.policy = cname
	ent.pw_min_life = C.long(in.PwMinLife)
	ent.pw_max_life = C.long(in.PwMaxLife)
	ent.pw_min_length = C.long(in.PwMinLength)
	ent.pw_min_classes = C.long(in.PwMinClasses)
	ent.pw_history_num = C.long(in.PwHistoryNum)
	ent.pw_max_fail = C.krb5_kvno(in.PwMaxFail)
	ent.pw_failcnt_interval = C.krb5_deltat(in.PwFailcntInterval)
	ent.pw_lockout_duration = C.krb5_deltat(in.PwLockoutDuration)
	ent.attributes = C.krb5_flags(in.Attributes)
	ent.max_life = C.krb5_deltat(in.MaxLife)
	ent.max_renewable_life = C.krb5_deltat(in.MaxRenewableLife)
	return ent, cleanup, nil
}

// CreatePolicy creates a policy with the masked fields.
func CreatePolicy(h *Handle, in *PolicyEnt, mask int64) error {
	ent, cleanup, err := policyEntToRaw(in)
	if err != nil {
		return err
	}
	defer cleanup()
	return kadmErr(h, C.kadm5_create_policy(h.srv, ent, C.long(mask)))
}

// ModifyPolicy updates the masked fields of an existing policy.
func ModifyPolicy(h *Handle, in *PolicyEnt, mask int64) error {
	ent, cleanup, err := policyEntToRaw(in)
	if err != nil {
		return err
	}
	defer cleanup()
	return kadmErr(h, C.kadm5_modify_policy(h.srv, ent, C.long(mask)))
}

// DeletePolicy removes a policy; fails if principals still reference it.
func DeletePolicy(h *Handle, name string) error {
	cname, err := cString(name)
	if err != nil {
		return err
	}
	defer freeCString(cname)
	return kadmErr(h, C.kadm5_delete_policy(h.srv, cname))
}

// Privileges reports the ACL bits the authenticated client holds.
func Privileges(h *Handle) (int64, error) {
	var privs C.long
	if err := kadmErr(h, C.kadm5_get_privs(h.srv, &privs)); err != nil {
		return 0, err
	}
	return int64(privs), nil
}

// DefaultRealm returns the profile's default realm, if configured.
func DefaultRealm(h *Handle) (string, error) {
	var raw *C.char
	if err := krbErr(h, C.krb5_get_default_realm((C.krb5_context)(h.ctx), &raw)); err != nil {
		return "", err
	}
	realm, err := goString(raw)
	C.krb5_free_default_realm((C.krb5_context)(h.ctx), raw)
	return realm, err
}
