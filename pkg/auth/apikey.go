package auth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Haithedotai/core/pkg/blockchain"
)

// KeyPrefix starts every API key.
const KeyPrefix = "hk_"

// ErrMalformedKey is returned by ParseKey for strings that are not API keys.
var ErrMalformedKey = errors.New("auth: malformed api key")

// Key is a decoded API key.
type Key struct {
	Address   common.Address
	IssuedAt  time.Time
	Signature []byte
}

// keyMessage is the signed payload: the 20 address bytes followed by the
// issued-at unix time as a 32-byte big-endian integer.
func keyMessage(address common.Address, issuedAt time.Time) []byte {
	msg := append([]byte(nil), address.Bytes()...)
	return append(msg, blockchain.BigIntToBytes(big.NewInt(issuedAt.Unix()))...)
}

// Issue signs a key for address with the server key. Only the second of
// issuedAt is kept.
func Issue(serverKey *ecdsa.PrivateKey, address common.Address, issuedAt time.Time) (string, error) {
	if serverKey == nil {
		return "", errors.New("auth: server key is required")
	}
	sig := blockchain.GetSignature(keyMessage(address, issuedAt), serverKey)
	if sig == nil {
		return "", errors.New("auth: signing failed")
	}
	return fmt.Sprintf("%s%s_%d_%s", KeyPrefix, address.Hex(), issuedAt.Unix(), hex.EncodeToString(sig)), nil
}

// ParseKey decodes raw without checking the signature.
func ParseKey(raw string) (*Key, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), KeyPrefix)
	if !ok {
		return nil, ErrMalformedKey
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 3 || !common.IsHexAddress(parts[0]) {
		return nil, ErrMalformedKey
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || unix < 0 {
		return nil, ErrMalformedKey
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(parts[2], "0x"))
	if err != nil || len(sig) == 0 {
		return nil, ErrMalformedKey
	}
	return &Key{
		Address:   common.HexToAddress(parts[0]),
		IssuedAt:  time.Unix(unix, 0).UTC(),
		Signature: sig,
	}, nil
}

// SignedBy reports whether the key was signed by signer.
func (k *Key) SignedBy(signer common.Address) bool {
	got, err := blockchain.RecoverSigner(keyMessage(k.Address, k.IssuedAt), k.Signature)
	return err == nil && got == signer
}
