package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/argon2"

	"github.com/bitfsorg/nftstages-go/identity"
)

// KeyFileV1 is the current key file version.
const KeyFileV1 = 1

const (
	saltLen = 16
	keyLen  = 32
)

// Params are the Argon2id cost parameters, stored in the key file so files
// stay readable if the defaults change.
type Params struct {
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory_kib"`
	Threads uint8  `json:"threads"`
}

// DefaultParams is the cost used for new key files.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 4}

// KeyFile is an encrypted signer key.
//
// Ciphertext = AES-256-GCM(argon2id(password, Salt), Nonce, key), with the
// identity as additional data so a file cannot be relabelled.
type KeyFile struct {
	Version    int               `json:"version"`
	Identity   identity.Identity `json:"identity"`
	Path       string            `json:"path,omitempty"` // derivation path, if derived
	KDF        Params            `json:"kdf"`
	Salt       []byte            `json:"salt"`
	Nonce      []byte            `json:"nonce"`
	Ciphertext []byte            `json:"ciphertext"`
}

func (p Params) aead(password string, salt []byte) (cipher.AEAD, error) {
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: zero kdf parameter", ErrInvalidKeyFile)
	}
	block, err := aes.NewCipher(argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, keyLen))
	if err != nil {
		return nil, fmt.Errorf("keystore: AES cipher creation failed: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("keystore: GCM creation failed: %w", err)
	}
	return gcm, nil
}

// Seal encrypts priv under password.
func Seal(priv *ec.PrivateKey, password string, params Params) (*KeyFile, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key", ErrNilParam)
	}
	id, err := identity.FromPublicKey(priv.PubKey())
	if err != nil {
		return nil, err
	}
	kf := &KeyFile{Version: KeyFileV1, Identity: id, KDF: params, Salt: make([]byte, saltLen)}
	if _, err := rand.Read(kf.Salt); err != nil {
		return nil, fmt.Errorf("keystore: generate salt: %w", err)
	}
	gcm, err := params.aead(password, kf.Salt)
	if err != nil {
		return nil, err
	}
	kf.Nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(kf.Nonce); err != nil {
		return nil, fmt.Errorf("keystore: generate nonce: %w", err)
	}
	kf.Ciphertext = gcm.Seal(nil, kf.Nonce, priv.Serialize(), id[:])
	return kf, nil
}

// Open decrypts the key with password and checks it against Identity.
func (kf *KeyFile) Open(password string) (*ec.PrivateKey, error) {
	if kf.Version != KeyFileV1 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidKeyFile, kf.Version)
	}
	if len(kf.Salt) != saltLen {
		return nil, fmt.Errorf("%w: salt length %d", ErrInvalidKeyFile, len(kf.Salt))
	}
	gcm, err := kf.KDF.aead(password, kf.Salt)
	if err != nil {
		return nil, err
	}
	if len(kf.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce length %d", ErrInvalidKeyFile, len(kf.Nonce))
	}
	raw, err := gcm.Open(nil, kf.Nonce, kf.Ciphertext, kf.Identity[:])
	if err != nil || len(raw) != keyLen {
		return nil, ErrDecryptionFailed
	}
	priv, pub := ec.PrivateKeyFromBytes(raw)
	id, err := identity.FromPublicKey(pub)
	if err != nil || id != kf.Identity {
		return nil, ErrIdentityMismatch
	}
	return priv, nil
}

// Save writes kf to path with owner-only permissions. An existing file is
// never overwritten.
func Save(path string, kf *KeyFile) error {
	if kf == nil {
		return fmt.Errorf("%w: key file", ErrNilParam)
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: encode key file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("keystore: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrKeyExists, path)
	}
	if err != nil {
		return fmt.Errorf("keystore: create key file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("keystore: write key file: %w", err)
	}
	return f.Close()
}

// Load reads a key file without decrypting it.
func Load(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: read key file: %w", err)
	}
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyFile, err)
	}
	return &kf, nil
}

// LoadKey reads and decrypts the key file at path.
func LoadKey(path, password string) (*ec.PrivateKey, error) {
	kf, err := Load(path)
	if err != nil {
		return nil, err
	}
	return kf.Open(password)
}
