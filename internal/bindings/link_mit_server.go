//go:build cgo && !windows && !kadm5_heimdal && kadm5_server

package bindings

// Server flavor: links the server-side kadm5 library for direct realm
// database access (the kadmin.local model). OpenLocal only works here.

// #cgo LDFLAGS: -lkadm5srv_mit -lkdb5 -lgssrpc -lgssapi_krb5 -lkrb5 -lk5crypto -lcom_err -lkrb5support
import "C"

func init() {
	caps.MitServer = true
}
