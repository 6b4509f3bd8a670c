package kadm5

import "github.com/authentik-community/kadmin-go/internal/bindings"

// KeyData is one key held by a principal, as reported by a lookup that
// requested key data. The key material itself is only present when the
// backend permits extraction.
type KeyData struct {
	// Kvno is the key version number this key belongs to.
	Kvno uint32
	// EncryptionType identifies the key's encryption type.
	EncryptionType EncryptionType
	// Key is the raw key material.
	Key []byte
	// SaltType identifies how the salt was derived.
	SaltType SaltType
	// Salt is the explicit salt, empty when the type implies it.
	Salt []byte
}

func keyDataFromEnt(ent bindings.KeyDataEnt) KeyData {
	return KeyData{
		Kvno:           ent.Kvno,
		EncryptionType: EncryptionType(ent.Enctype),
		Key:            ent.Key,
		SaltType:       SaltType(ent.SaltType),
		Salt:           ent.Salt,
	}
}
