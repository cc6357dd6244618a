package keystore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/nftstages-go/identity"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

// fastParams keeps Argon2id cheap in tests.
var fastParams = Params{Time: 1, Memory: 1024, Threads: 1}

func newKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

// ---------------------------------------------------------------------------
// Mnemonics and derivation
// ---------------------------------------------------------------------------

func TestGenerateMnemonic(t *testing.T) {
	m12, err := GenerateMnemonic(Mnemonic12Words)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m12), 12)

	m24, err := GenerateMnemonic(Mnemonic24Words)
	require.NoError(t, err)
	assert.Len(t, strings.Fields(m24), 24)

	_, err = GenerateMnemonic(100)
	assert.ErrorIs(t, err, ErrInvalidEntropy)
}

func TestDeriveSigner_Deterministic(t *testing.T) {
	a, err := DeriveSigner(testMnemonic, "", 0, 0)
	require.NoError(t, err)
	b, err := DeriveSigner(testMnemonic, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, a.Serialize(), b.Serialize())
}

func TestDeriveSigner_DistinctKeys(t *testing.T) {
	base, err := DeriveSigner(testMnemonic, "", 0, 0)
	require.NoError(t, err)

	tests := []struct {
		name       string
		passphrase string
		account    uint32
		index      uint32
	}{
		{"next index", "", 0, 1},
		{"next account", "", 1, 0},
		{"passphrase", "hunter2", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := DeriveSigner(testMnemonic, tt.passphrase, tt.account, tt.index)
			require.NoError(t, err)
			assert.NotEqual(t, base.Serialize(), k.Serialize())
		})
	}
}

func TestDeriveSigner_Errors(t *testing.T) {
	_, err := DeriveSigner("not a mnemonic", "", 0, 0)
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = DeriveSigner(testMnemonic, "", hardened, 0)
	assert.ErrorIs(t, err, ErrDerivationFailed)
}

func TestSignerPath(t *testing.T) {
	assert.Equal(t, "m/44'/236'/2'/0/7", SignerPath(2, 7))
}

// ---------------------------------------------------------------------------
// Key files
// ---------------------------------------------------------------------------

func TestSealOpen_RoundTrip(t *testing.T) {
	priv := newKey(t)
	kf, err := Seal(priv, "correct horse", fastParams)
	require.NoError(t, err)

	want, err := identity.FromPublicKey(priv.PubKey())
	require.NoError(t, err)
	assert.Equal(t, want, kf.Identity)

	got, err := kf.Open("correct horse")
	require.NoError(t, err)
	assert.Equal(t, priv.Serialize(), got.Serialize())
}

func TestSeal_DefaultParams(t *testing.T) {
	priv := newKey(t)
	kf, err := Seal(priv, "pw", DefaultParams)
	require.NoError(t, err)
	got, err := kf.Open("pw")
	require.NoError(t, err)
	assert.Equal(t, priv.Serialize(), got.Serialize())
}

func TestSeal_FreshSaltAndNonce(t *testing.T) {
	priv := newKey(t)
	a, err := Seal(priv, "pw", fastParams)
	require.NoError(t, err)
	b, err := Seal(priv, "pw", fastParams)
	require.NoError(t, err)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestOpen_Errors(t *testing.T) {
	priv := newKey(t)

	tests := []struct {
		name    string
		modify  func(*KeyFile)
		pw      string
		wantErr error
	}{
		{"wrong password", func(*KeyFile) {}, "wrong", ErrDecryptionFailed},
		{"flipped ciphertext", func(kf *KeyFile) { kf.Ciphertext[0] ^= 1 }, "pw", ErrDecryptionFailed},
		{"relabelled identity", func(kf *KeyFile) {
			other, err := identity.FromPublicKey(newKey(t).PubKey())
			require.NoError(t, err)
			kf.Identity = other
		}, "pw", ErrDecryptionFailed},
		{"bad version", func(kf *KeyFile) { kf.Version = 9 }, "pw", ErrInvalidKeyFile},
		{"short salt", func(kf *KeyFile) { kf.Salt = kf.Salt[:4] }, "pw", ErrInvalidKeyFile},
		{"bad nonce", func(kf *KeyFile) { kf.Nonce = kf.Nonce[:4] }, "pw", ErrInvalidKeyFile},
		{"zero kdf", func(kf *KeyFile) { kf.KDF.Time = 0 }, "pw", ErrInvalidKeyFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kf, err := Seal(priv, "pw", fastParams)
			require.NoError(t, err)
			tt.modify(kf)
			_, err = kf.Open(tt.pw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSeal_NilKey(t *testing.T) {
	_, err := Seal(nil, "pw", fastParams)
	assert.ErrorIs(t, err, ErrNilParam)
	assert.ErrorIs(t, Save(filepath.Join(t.TempDir(), "k.json"), nil), ErrNilParam)
}

func TestSaveLoad(t *testing.T) {
	priv := newKey(t)
	kf, err := Seal(priv, "pw", fastParams)
	require.NoError(t, err)
	kf.Path = SignerPath(0, 0)

	path := filepath.Join(t.TempDir(), "keys", "authority.json")
	require.NoError(t, Save(path, kf))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, kf, loaded)

	got, err := LoadKey(path, "pw")
	require.NoError(t, err)
	assert.Equal(t, priv.Serialize(), got.Serialize())

	assert.ErrorIs(t, Save(path, kf), ErrKeyExists)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"identity": "zz"}`), 0600))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalidKeyFile)
}
