package blockchain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TokenDecimals is the number of decimals of the tUSDT token.
const TokenDecimals = 18

// GetAddressFromPrivateKeyECDSA derives the Ethereum address from the given
// ECDSA private key. It returns nil if the key is nil or its public part cannot
// be asserted to *ecdsa.PublicKey.
func GetAddressFromPrivateKeyECDSA(privateKeyECDSA *ecdsa.PrivateKey) *common.Address {
	if privateKeyECDSA == nil {
		return nil
	}
	publicKey := privateKeyECDSA.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil
	}
	addr := crypto.PubkeyToAddress(*publicKeyECDSA)
	return &addr
}

// ParsePrivateKeyECDSA parses a hex-encoded ECDSA private key (with or
// without 0x prefix) and returns the corresponding Ethereum address together
// with the private key object.
func ParsePrivateKeyECDSA(privateKey string) (common.Address, *ecdsa.PrivateKey, error) {
	privateKey = strings.TrimPrefix(strings.TrimSpace(privateKey), "0x")
	privateKeyECDSA, err := crypto.HexToECDSA(privateKey)
	if err != nil {
		return common.Address{}, nil, err
	}

	publicKey := privateKeyECDSA.Public()

	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return common.Address{}, nil, errors.New("failed to get public key")
	}

	address := crypto.PubkeyToAddress(*publicKeyECDSA)
	return address, privateKeyECDSA, nil
}

// BigIntToBytes converts a *big.Int value to a 32-byte big-endian slice, using
// the same formatting that Ethereum commonly applies to integers in ABI/keccak
// contexts (common.BigToHash).
func BigIntToBytes(value *big.Int) []byte {
	return common.BigToHash(value).Bytes()
}

// ToSmallestUnit converts a token amount to its smallest unit (18 decimals).
//
// Supported input types for iamount: string, float64, int64, decimal.Decimal,
// *decimal.Decimal. Any other type results in an error.
func ToSmallestUnit(iamount any) (*big.Int, error) {
	var amount decimal.Decimal
	switch v := iamount.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			zap.L().Error("Failed to convert string to decimal", zap.Error(err))
			return nil, err
		}
		amount = d
	case float64:
		amount = decimal.NewFromFloat(v)
	case int64:
		amount = decimal.NewFromInt(v)
	case decimal.Decimal:
		amount = v
	case *decimal.Decimal:
		amount = *v
	default:
		return nil, fmt.Errorf("unsupported amount type %T", iamount)
	}
	return amount.Shift(TokenDecimals).BigInt(), nil
}

// FromSmallestUnit converts an amount in the smallest unit into whole tokens
// as a decimal.Decimal with 18 digits of precision.
//
// Supported input types for ivalue: string, *big.Int, int, uint64.
// Any other type results in decimal.Zero and logs an error.
func FromSmallestUnit(ivalue any) decimal.Decimal {
	value := new(big.Int)
	switch v := ivalue.(type) {
	case string:
		if _, ok := value.SetString(v, 10); !ok {
			zap.L().Error("Failed to parse amount", zap.String("value", v))
			return decimal.Zero
		}
	case *big.Int:
		value = v
	case int:
		value.SetInt64(int64(v))
	case uint64:
		value.SetUint64(v)
	default:
		zap.L().Error("Unsupported type")
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -TokenDecimals).Round(TokenDecimals)
}

// personalHash is keccak256("\x19Ethereum Signed Message:\n32" || keccak256(message)).
func personalHash(message []byte) []byte {
	return crypto.Keccak256(
		HashPrefix32Bytes,
		crypto.Keccak256(message),
	)
}

// GetSignature produces an Ethereum-compatible personal-sign (EIP-191 style)
// signature over the given message. It hashes the payload as
// keccak256("\x19Ethereum Signed Message:\n32" || keccak256(message)) and
// signs with the provided ECDSA private key.
//
// Returns the 65-byte signature (R||S||V). On signing error it logs and returns nil.
func GetSignature(message []byte, privateKeyECDSA *ecdsa.PrivateKey) []byte {
	signature, err := crypto.Sign(personalHash(message), privateKeyECDSA)
	if err != nil {
		zap.L().Error("Failed to sign message", zap.Error(err))
	}

	return signature
}

// RecoverSigner returns the address that produced signature over message
// with GetSignature. V may be 0/1 or 27/28.
func RecoverSigner(message, signature []byte) (common.Address, error) {
	if len(signature) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(signature))
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(personalHash(message), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover signer: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
