package blockchain

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

func TestGetAddressFromPrivateKeyECDSA(t *testing.T) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	addr := GetAddressFromPrivateKeyECDSA(priv)
	if addr == nil {
		t.Fatal("expected non-nil address")
	}
	want := crypto.PubkeyToAddress(priv.PublicKey)
	if *addr != want {
		t.Fatalf("unexpected address: got %s want %s", addr.Hex(), want.Hex())
	}

	if GetAddressFromPrivateKeyECDSA(nil) != nil {
		t.Fatal("expected nil for nil key")
	}
}

func TestParsePrivateKeyECDSA(t *testing.T) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	hexKey := hex.EncodeToString(crypto.FromECDSA(priv))

	for _, in := range []string{hexKey, "0x" + hexKey} {
		addr, parsedKey, err := ParsePrivateKeyECDSA(in)
		if err != nil {
			t.Fatalf("ParsePrivateKeyECDSA: %v", err)
		}
		if addr != crypto.PubkeyToAddress(priv.PublicKey) {
			t.Fatalf("unexpected address: %s", addr.Hex())
		}
		if parsedKey.D.Cmp(priv.D) != 0 {
			t.Fatal("parsed key mismatch")
		}
	}

	if _, _, err := ParsePrivateKeyECDSA("zz"); err == nil {
		t.Fatal("expected error for invalid key")
	}
}

func TestBigIntToBytes(t *testing.T) {
	got := BigIntToBytes(big.NewInt(1))
	if len(got) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(got))
	}
	if got[31] != 1 {
		t.Fatalf("unexpected bytes: %x", got)
	}
}

func TestToSmallestUnit(t *testing.T) {
	tests := []struct {
		input    any
		expected string
	}{
		{"1", "1000000000000000000"},
		{"0.0001", "100000000000000"},
		{1.5, "1500000000000000000"},
		{int64(2), "2000000000000000000"},
		{decimal.NewFromFloat(0.25), "250000000000000000"},
	}

	for _, tc := range tests {
		got, err := ToSmallestUnit(tc.input)
		if err != nil {
			t.Fatalf("ToSmallestUnit(%v) error: %v", tc.input, err)
		}
		if got.String() != tc.expected {
			t.Fatalf("ToSmallestUnit(%v) = %s, want %s", tc.input, got.String(), tc.expected)
		}
	}

	if _, err := ToSmallestUnit("not-a-number"); err == nil {
		t.Fatal("expected error for invalid string")
	}
	if _, err := ToSmallestUnit(struct{}{}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}

func TestFromSmallestUnit(t *testing.T) {
	val := FromSmallestUnit("1500000000000000000")
	want := decimal.RequireFromString("1.5")
	if !val.Equal(want) {
		t.Fatalf("FromSmallestUnit mismatch: got %s, want %s", val, want)
	}

	bigVal := big.NewInt(2000000000000000000)
	if got := FromSmallestUnit(bigVal); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("FromSmallestUnit(*big.Int) = %s, want 2", got)
	}

	if got := FromSmallestUnit(uint64(100000000000000)); !got.Equal(decimal.RequireFromString("0.0001")) {
		t.Fatalf("FromSmallestUnit(uint64) = %s", got)
	}

	if got := FromSmallestUnit(1.0); !got.Equal(decimal.Zero) {
		t.Fatalf("unsupported type should yield zero, got %s", got)
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	msg := []byte("haithe")

	sig := GetSignature(msg, priv)
	if len(sig) != 65 {
		t.Fatalf("signature length = %d", len(sig))
	}

	signer, err := RecoverSigner(msg, sig)
	if err != nil {
		t.Fatalf("RecoverSigner: %v", err)
	}
	if signer != crypto.PubkeyToAddress(priv.PublicKey) {
		t.Fatalf("recovered %s", signer.Hex())
	}

	// wallets commonly report V as 27/28
	legacy := append([]byte(nil), sig...)
	legacy[64] += 27
	signer, err = RecoverSigner(msg, legacy)
	if err != nil || signer != crypto.PubkeyToAddress(priv.PublicKey) {
		t.Fatalf("RecoverSigner with V+27: %s, %v", signer.Hex(), err)
	}

	other, err := RecoverSigner([]byte("tampered"), sig)
	if err == nil && other == signer {
		t.Fatal("tampered message must not recover the same signer")
	}

	if _, err := RecoverSigner(msg, sig[:10]); err == nil {
		t.Fatal("expected error for short signature")
	}
}
