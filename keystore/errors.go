package keystore

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("keystore: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("keystore: entropy bits must be 128 or 256")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("keystore: key derivation failed")

	// ErrDecryptionFailed indicates a wrong password or corrupted key file.
	ErrDecryptionFailed = errors.New("keystore: key decryption failed (wrong password or corrupted data)")

	// ErrIdentityMismatch indicates the decrypted key does not match the
	// identity recorded in the key file.
	ErrIdentityMismatch = errors.New("keystore: decrypted key does not match recorded identity")

	// ErrInvalidKeyFile indicates a key file that cannot be parsed.
	ErrInvalidKeyFile = errors.New("keystore: invalid key file")

	// ErrKeyExists indicates the key file already exists.
	ErrKeyExists = errors.New("keystore: key file already exists")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("keystore: required parameter is nil")
)
