package payment

import (
	"math"
	"testing"

	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/identity"
)

const (
	treasury = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
	other    = "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2"
)

// ---------------------------------------------------------------------------
// Totals
// ---------------------------------------------------------------------------

func TestTotal(t *testing.T) {
	tests := []struct {
		name   string
		price  uint64
		units  uint64
		want   uint64
		wantOK bool
	}{
		{"free", 0, 5, 0, true},
		{"single", 100, 1, 100, true},
		{"batch", 200, 3, 600, true},
		{"max without overflow", math.MaxUint64, 1, math.MaxUint64, true},
		{"overflow", math.MaxUint64, 2, 0, false},
		{"large overflow", 1 << 40, 1 << 40, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Total(tt.price, tt.units)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPayment_Covers(t *testing.T) {
	p := Payment{Amount: 150}
	assert.True(t, p.Covers(100, 1))
	assert.True(t, p.Covers(75, 2))
	assert.False(t, p.Covers(100, 2))
	assert.False(t, Payment{Amount: math.MaxUint64}.Covers(math.MaxUint64, 2))
	assert.True(t, Payment{}.Covers(0, 10))
}

// ---------------------------------------------------------------------------
// Refs
// ---------------------------------------------------------------------------

func TestParseRef(t *testing.T) {
	var r Ref
	r[0], r[31] = 0xAB, 0xCD
	got, err := ParseRef(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.False(t, got.IsZero())
	assert.True(t, Ref{}.IsZero())

	_, err = ParseRef("abcd")
	assert.ErrorIs(t, err, ErrInvalidRef)
	_, err = ParseRef("xyz")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

// ---------------------------------------------------------------------------
// Ledger entries
// ---------------------------------------------------------------------------

func TestSerializeEntry_RoundTrip(t *testing.T) {
	var payer identity.Identity
	payer[0] = 0x03
	e := &Entry{
		Version:      collection.CurrentLayout,
		Ref:          Ref{1, 2, 3},
		CollectionID: collection.ID{9, 9},
		Payer:        payer,
		Amount:       700,
		Charged:      600,
		At:           1_700_000_000,
	}
	data := SerializeEntry(e)
	assert.Len(t, data, entrySize)

	got, err := DeserializeEntry(data)
	require.NoError(t, err)
	assert.Equal(t, e, got)
	assert.Equal(t, uint64(100), got.Change())
}

func TestDeserializeEntry_Errors(t *testing.T) {
	_, err := DeserializeEntry(make([]byte, entrySize-1))
	assert.ErrorIs(t, err, ErrInvalidEntryData)

	_, err = DeserializeEntry(make([]byte, entrySize))
	assert.ErrorIs(t, err, ErrInvalidEntryData)
}

func TestEntry_ChangeNeverNegative(t *testing.T) {
	e := &Entry{Amount: 10, Charged: 20}
	assert.Equal(t, uint64(0), e.Change())
}

// ---------------------------------------------------------------------------
// Raw transactions
// ---------------------------------------------------------------------------

func TestFromRawTx_SumsTreasuryOutputs(t *testing.T) {
	tx := transaction.NewTransaction()
	require.NoError(t, tx.PayToAddress(treasury, 400))
	require.NoError(t, tx.PayToAddress(other, 9999))
	require.NoError(t, tx.PayToAddress(treasury, 200))

	p, err := FromRawTx(tx.Bytes(), treasury)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), p.Amount)

	var want Ref
	copy(want[:], tx.TxID()[:])
	assert.Equal(t, want, p.Ref)
}

func TestFromRawTx_Errors(t *testing.T) {
	tx := transaction.NewTransaction()
	require.NoError(t, tx.PayToAddress(other, 1000))
	raw := tx.Bytes()

	tests := []struct {
		name    string
		raw     []byte
		addr    string
		wantErr error
	}{
		{"empty tx", nil, treasury, ErrInvalidTx},
		{"garbage tx", []byte{0x01, 0x02, 0x03}, treasury, ErrInvalidTx},
		{"bad address", raw, "not-an-address", ErrInvalidAddress},
		{"no treasury output", raw, treasury, ErrNoMatchingOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRawTx(tt.raw, tt.addr)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
