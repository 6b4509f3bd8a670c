// Package kadm5 is a Go client for Kerberos realm administration,
// wrapping the native kadm5 library (MIT krb5 or Heimdal).
//
// # Sessions
//
// A KAdmin value represents one authenticated administration session.
// Sessions are opened with one of the constructors:
//
//	kadm, err := kadm5.NewWithPassword("user/admin@EXAMPLE.ORG", password)
//	if err != nil {
//	    return err
//	}
//	defer kadm.Close()
//
//	princs, err := kadm.ListPrincipals(ctx, "*")
//
// NewWithKeytab and NewWithCCache authenticate from a keytab or an
// existing credential cache. NewWithLocal bypasses the admin server and
// operates on the realm database directly; it requires the binary to be
// linked against a server-flavor library.
//
// # Thread confinement
//
// The native library binds a session to the OS thread that opened it
// and is not thread safe. Each KAdmin therefore owns a dedicated worker
// goroutine locked to its own OS thread; every native call for that
// session executes there. The KAdmin value itself is safe for
// concurrent use from any goroutine, with operations serialized in
// arrival order. Close waits for in-flight operations, releases the
// native handle on the worker thread, and lets the thread exit.
//
// # Library flavors
//
// The backing library flavor is chosen at build time:
//
//	(default)                MIT client (libkadm5clnt)
//	-tags kadm5_server       MIT server (libkadm5srv)
//	-tags kadm5_heimdal      Heimdal client
//	-tags "kadm5_heimdal kadm5_server"  Heimdal server
//
// ResolveVariant reports the active flavor. Builds without cgo compile
// but every session constructor reports ErrLibraryLoad.
//
// # Errors
//
// Failures surface as a closed set of types: KAdminError for protocol
// statuses from the admin server, KerberosError for failures in the
// authentication layer, LibraryMismatchError for flavor and version
// conflicts, RuntimeFault for a panic recovered on the worker thread,
// and package-level sentinels (ErrClientClosed, ErrLock, and the
// conversion errors) for everything else. All of them work with
// errors.Is and errors.As through wrapped returns.
package kadm5
