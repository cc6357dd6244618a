// Package keystore manages signer keys for instruction envelopes: BIP39
// mnemonics, BIP32 derivation of signer keys, and password-encrypted key
// files.
//
// Signer path: m/44'/236'/{account}'/0/{index}
package keystore

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	"github.com/bsv-blockchain/go-sdk/compat/bip39"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"
)

const (
	// Mnemonic entropy sizes.
	Mnemonic12Words = 128
	Mnemonic24Words = 256

	purposeBIP44 = 44
	coinTypeBSV  = 236
	hardened     = 0x80000000
)

// GenerateMnemonic creates a new BIP39 mnemonic with entropyBits of entropy.
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != Mnemonic12Words && entropyBits != Mnemonic24Words {
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("keystore: generate entropy: %w", err)
	}
	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("keystore: generate mnemonic: %w", err)
	}
	return m, nil
}

// SignerPath returns the derivation path of a signer key.
func SignerPath(account, index uint32) string {
	return fmt.Sprintf("m/%d'/%d'/%d'/0/%d", purposeBIP44, coinTypeBSV, account, index)
}

// DeriveSigner derives the signer key at SignerPath(account, index) from a
// mnemonic and optional passphrase.
func DeriveSigner(mnemonic, passphrase string, account, index uint32) (*ec.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if account >= hardened || index >= hardened {
		return nil, fmt.Errorf("%w: account %d index %d out of range", ErrDerivationFailed, account, index)
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	key, err := bip32.NewMaster(seed, &chaincfg.MainNet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	for _, child := range []uint32{
		purposeBIP44 + hardened,
		coinTypeBSV + hardened,
		account + hardened,
		0,
		index,
	} {
		if key, err = key.Child(child); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDerivationFailed, SignerPath(account, index), err)
		}
	}
	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return priv, nil
}
