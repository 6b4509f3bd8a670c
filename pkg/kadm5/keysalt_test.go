package kadm5

import (
	"errors"
	"testing"
)

func TestParseEncryptionType(t *testing.T) {
	tests := []struct {
		in   string
		want EncryptionType
	}{
		{"aes256-cts-hmac-sha1-96", Aes256CtsHmacSha196},
		{"aes256-cts", Aes256CtsHmacSha196},
		{"AES256-SHA1", Aes256CtsHmacSha196},
		{"aes128-sha2", Aes128CtsHmacSha256128},
		{"rc4-hmac", ArcfourHmac},
		{"camellia256-cts", Camellia256CtsCmac},
	}
	for _, tc := range tests {
		got, err := ParseEncryptionType(tc.in)
		if err != nil {
			t.Fatalf("ParseEncryptionType(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseEncryptionType(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseEncryptionTypeUnknown(t *testing.T) {
	if _, err := ParseEncryptionType("des-cbc-md42"); !errors.Is(err, ErrEncryptionTypeConversion) {
		t.Fatalf("ParseEncryptionType(unknown) = %v, want ErrEncryptionTypeConversion", err)
	}
}

func TestEncryptionTypeName(t *testing.T) {
	name, err := Aes256CtsHmacSha196.Name()
	if err != nil || name != "aes256-cts-hmac-sha1-96" {
		t.Fatalf("Name = %q, %v", name, err)
	}
	if _, err := EncryptionType(999).Name(); !errors.Is(err, ErrEncryptionTypeConversion) {
		t.Fatalf("Name(999) = %v, want ErrEncryptionTypeConversion", err)
	}
}

func TestParseSaltType(t *testing.T) {
	st, err := ParseSaltType("")
	if err != nil || st != SaltNormal {
		t.Fatalf("ParseSaltType(\"\") = %v, %v, want SaltNormal", st, err)
	}
	st, err = ParseSaltType("norealm")
	if err != nil || st != SaltNoRealm {
		t.Fatalf("ParseSaltType(norealm) = %v, %v", st, err)
	}
	if _, err := ParseSaltType("pepper"); !errors.Is(err, ErrSaltTypeConversion) {
		t.Fatalf("ParseSaltType(pepper) = %v, want ErrSaltTypeConversion", err)
	}
}

func TestParseKeySalts(t *testing.T) {
	ksl, err := ParseKeySalts("aes256-cts:normal,aes128-cts")
	if err != nil {
		t.Fatalf("ParseKeySalts: %v", err)
	}
	if len(ksl.KeySalts) != 2 {
		t.Fatalf("got %d keysalts, want 2", len(ksl.KeySalts))
	}
	if _, ok := ksl.KeySalts[KeySalt{EncryptionType: Aes128CtsHmacSha196, SaltType: SaltNormal}]; !ok {
		t.Fatal("bare enctype did not default to the normal salt")
	}

	want := "aes128-cts-hmac-sha1-96:normal,aes256-cts-hmac-sha1-96:normal"
	if got := ksl.String(); got != want {
		t.Fatalf("String = %q, want %q", got, want)
	}
}

func TestParseKeySaltsBadTuple(t *testing.T) {
	if _, err := ParseKeySalts("aes256-cts:pepper"); !errors.Is(err, ErrSaltTypeConversion) {
		t.Fatalf("bad salt = %v, want ErrSaltTypeConversion", err)
	}
	if _, err := ParseKeySalts("rot13:normal"); !errors.Is(err, ErrEncryptionTypeConversion) {
		t.Fatalf("bad enctype = %v, want ErrEncryptionTypeConversion", err)
	}
}
