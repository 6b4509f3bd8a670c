//go:build cgo && !windows && !kadm5_heimdal && !kadm5_server

package bindings

// Client flavor: talks to kadmind over the kadm5 RPC protocol.

// #cgo LDFLAGS: -lkadm5clnt_mit -lgssrpc -lgssapi_krb5 -lkrb5 -lk5crypto -lcom_err -lkrb5support
import "C"

func init() {
	caps.MitClient = true
}
