package identity

import (
	"encoding/json"
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromPublicKey_RoundTrip(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)

	id, err := FromPublicKey(priv.PubKey())
	require.NoError(t, err)
	assert.Equal(t, priv.PubKey().Compressed(), id[:])
	assert.False(t, id.IsZero())

	parsed, err := ParseHex(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	pub, err := parsed.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, priv.PubKey().Compressed(), pub.Compressed())
}

func TestFromPublicKey_Nil(t *testing.T) {
	_, err := FromPublicKey(nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestFromBytes_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"too short", make([]byte, 32)},
		{"too long", make([]byte, 34)},
		{"not on curve", append([]byte{0x05}, make([]byte, 32)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromBytes(tt.input)
			assert.ErrorIs(t, err, ErrInvalidIdentity)
		})
	}
}

func TestParseHex_BadHex(t *testing.T) {
	_, err := ParseHex("zz")
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}

func TestIdentity_JSON(t *testing.T) {
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	id, err := FromPublicKey(priv.PubKey())
	require.NoError(t, err)

	data, err := json.Marshal(struct {
		Who Identity `json:"who"`
	}{id})
	require.NoError(t, err)
	assert.Contains(t, string(data), id.String())

	var out struct {
		Who Identity `json:"who"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, id, out.Who)
}
