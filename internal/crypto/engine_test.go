package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine([]byte("test-master-secret"), []byte("test-salt-value-32-bytes-long!!!"))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	pt := []byte(`{"document_number":"X123","status":"verified"}`)
	blob, err := e.Encrypt(pt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	got, err := e.Decrypt(blob)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(pt, got) {
		t.Fatal("plaintext mismatch after round trip")
	}
	if e.Digest(got) != e.Digest(pt) {
		t.Fatal("digest changed across round trip")
	}
}

func TestBlobLayout(t *testing.T) {
	e := newTestEngine(t)
	blob, err := e.Encrypt([]byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	parts := strings.Split(blob, ":")
	if len(parts) != 3 {
		t.Fatalf("expected 3 colon-joined fields, got %d", len(parts))
	}
	nonce, err := hex.DecodeString(parts[0])
	if err != nil {
		t.Fatalf("nonce not hex: %v", err)
	}
	if len(nonce) != 24 {
		t.Fatalf("nonce length = %d, want 24", len(nonce))
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("tag not hex: %v", err)
	}
	if len(tag) != 16 {
		t.Fatalf("tag length = %d, want 16", len(tag))
	}
}

func TestFreshNoncePerCall(t *testing.T) {
	e := newTestEngine(t)
	b1, err := e.Encrypt([]byte("same"))
	if err != nil {
		t.Fatalf("encrypt1: %v", err)
	}
	b2, err := e.Encrypt([]byte("same"))
	if err != nil {
		t.Fatalf("encrypt2: %v", err)
	}
	if strings.Split(b1, ":")[0] == strings.Split(b2, ":")[0] {
		t.Fatal("nonce reused across calls")
	}
}

func TestDecryptFormatErrors(t *testing.T) {
	e := newTestEngine(t)
	cases := []string{
		"",
		"onlyonefield",
		"two:fields",
		"a:b:c:d",
		"zz:zz:zz", // not hex
		"abcd:" + strings.Repeat("00", 16) + ":deadbeef", // nonce too short
	}
	for _, blob := range cases {
		if _, err := e.Decrypt(blob); !errors.Is(err, ErrFormat) {
			t.Fatalf("Decrypt(%q) = %v, want ErrFormat", blob, err)
		}
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	e := newTestEngine(t)
	blob, err := e.Encrypt([]byte("sensitive record contents"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	parts := strings.Split(blob, ":")
	ct, _ := hex.DecodeString(parts[2])
	for i := range ct {
		mut := append([]byte(nil), ct...)
		mut[i] ^= 0x01
		tampered := parts[0] + ":" + parts[1] + ":" + hex.EncodeToString(mut)
		if _, err := e.Decrypt(tampered); !errors.Is(err, ErrAuthentication) {
			t.Fatalf("byte %d: got %v, want ErrAuthentication", i, err)
		}
	}
}

func TestDecryptTamperedTag(t *testing.T) {
	e := newTestEngine(t)
	blob, err := e.Encrypt([]byte("x"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	parts := strings.Split(blob, ":")
	tag, _ := hex.DecodeString(parts[1])
	tag[0] ^= 0xFF
	tampered := parts[0] + ":" + hex.EncodeToString(tag) + ":" + parts[2]
	if _, err := e.Decrypt(tampered); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("got %v, want ErrAuthentication", err)
	}
}

func TestChainDependsOnPrev(t *testing.T) {
	e := newTestEngine(t)
	m1 := e.Chain(nil, []byte("entry"))
	m2 := e.Chain(m1, []byte("entry"))
	if bytes.Equal(m1, m2) {
		t.Fatal("chain MAC ignores previous link")
	}
}
