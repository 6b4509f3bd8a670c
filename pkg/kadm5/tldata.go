package kadm5

import "github.com/authentik-community/kadmin-go/internal/bindings"

// TlData is one tagged-data entry attached to a principal. The KDC and
// plugins use these for bookkeeping such as last-admin-unlock or PKINIT
// certificate hashes; the contents are opaque to this package.
type TlData struct {
	// Type is the KRB5_TL_* tag.
	Type int16
	// Contents is the raw entry payload.
	Contents []byte
}

func tlDataFromEnt(ent bindings.TlDataEnt) TlData {
	return TlData{Type: ent.Type, Contents: ent.Contents}
}
