package tests

import (
	"bytes"
	"errors"
	"testing"

	cr "github.com/FanzCEO/FanzDash-sub000/internal/crypto"
)

func newEngine(t testing.TB) *cr.Engine {
	t.Helper()
	e, err := cr.NewEngine([]byte("fuzz-master-secret"), []byte("fuzz-salt"))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func FuzzBlobRoundtrip(f *testing.F) {
	f.Add([]byte("hello"))
	f.Add([]byte{})
	f.Add([]byte{0x00, 0xff, 0x10})
	f.Fuzz(func(t *testing.T, pt []byte) {
		e := newEngine(t)
		blob, err := e.Encrypt(pt)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := e.Decrypt(blob)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if !bytes.Equal(pt, got) {
			t.Fatalf("roundtrip mismatch")
		}
	})
}

// FuzzBlobDecode feeds arbitrary strings to the decoder: anything that is not
// a blob produced by this engine must come back as a typed error, never as
// plaintext and never as a panic.
func FuzzBlobDecode(f *testing.F) {
	f.Add("")
	f.Add("::")
	f.Add("aa:bb:cc")
	f.Add("zz:bb:cc")
	f.Add("aa:bb:cc:dd")
	f.Fuzz(func(t *testing.T, blob string) {
		e := newEngine(t)
		pt, err := e.Decrypt(blob)
		if err == nil {
			t.Fatalf("accepted unauthenticated input %q -> %q", blob, pt)
		}
		if !errors.Is(err, cr.ErrFormat) && !errors.Is(err, cr.ErrAuthentication) {
			t.Fatalf("untyped error: %v", err)
		}
	})
}
