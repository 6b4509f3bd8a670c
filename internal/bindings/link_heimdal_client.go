//go:build cgo && !windows && kadm5_heimdal && !kadm5_server

package bindings

// #cgo LDFLAGS: -lkadm5clnt -lkrb5 -lasn1 -lroken -lcom_err
import "C"

func init() {
	caps.HeimdalClient = true
}
