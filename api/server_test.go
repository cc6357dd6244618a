package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/instruction"
	"github.com/bitfsorg/nftstages-go/metrics"
	"github.com/bitfsorg/nftstages-go/payment"
	"github.com/bitfsorg/nftstages-go/stage"
	"github.com/bitfsorg/nftstages-go/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var now = time.Unix(1_800_000_000, 0)

type harness struct {
	t         *testing.T
	clock     time.Time
	srv       *Server
	authority *ec.PrivateKey
	buyer     *ec.PrivateKey
	id        collection.ID
	refs      byte
}

type instructionResponse struct {
	Kind   string `json:"kind"`
	Result struct {
		CollectionID collection.ID   `json:"collection_id"`
		StageCount   int             `json:"stage_count"`
		Receipt      *engine.Receipt `json:"receipt"`
	} `json:"result"`
}

func newKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	priv, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

// newHarness serves a collection with one open stage:
// price 100, wallet cap 3, supply 5, open from now+30. The clock is left at
// now+60.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:         t,
		clock:     now,
		authority: newKey(t),
		buyer:     newKey(t),
	}
	clock := func() time.Time { return h.clock }
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	eng := engine.New(store.NewMemStore(), engine.WithClock(clock), engine.WithObserver(m))
	proc := instruction.NewProcessor(eng, instruction.WithProcessorClock(clock))
	h.srv = New(eng, proc, WithMetrics(m, reg))

	var res instructionResponse
	h.submitOK(instruction.KindInitialize, collection.ID{},
		&instruction.InitializePayload{Name: "genesis", BaseURI: "https://meta.example/g", TotalSupplyCap: 5}, h.authority, &res)
	h.id = res.Result.CollectionID

	h.submitOK(instruction.KindAddStage, h.id, &instruction.StagePayload{Config: stage.Config{
		Index: 0, StartTime: now.Unix() + 30, Price: 100,
		Eligibility: stage.Open(), PerWalletCap: 3, SupplyCap: 5,
	}}, h.authority, &res)
	require.Equal(t, 1, res.Result.StageCount)
	h.clock = now.Add(time.Minute)
	return h
}

func (h *harness) do(method, path string, body []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(w, req)
	return w
}

func (h *harness) submit(kind instruction.Kind, id collection.ID, pl interface{ MarshalBinary() ([]byte, error) }, priv *ec.PrivateKey) *httptest.ResponseRecorder {
	h.t.Helper()
	env, err := instruction.New(kind, id, pl, now, priv)
	require.NoError(h.t, err)
	s, err := env.EncodeHex()
	require.NoError(h.t, err)
	body, err := json.Marshal(map[string]string{"instruction": s})
	require.NoError(h.t, err)
	return h.do(http.MethodPost, "/v1/instructions", body)
}

func (h *harness) submitOK(kind instruction.Kind, id collection.ID, pl interface{ MarshalBinary() ([]byte, error) }, priv *ec.PrivateKey, out any) {
	h.t.Helper()
	w := h.submit(kind, id, pl, priv)
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), out))
}

// mint submits a direct payment attested by the collection authority.
func (h *harness) mint(units, amount uint64) *httptest.ResponseRecorder {
	h.t.Helper()
	h.refs++
	ref := payment.Ref{h.refs}
	buyer, err := identity.FromPublicKey(h.buyer.PubKey())
	require.NoError(h.t, err)
	att, err := instruction.AttestPayment(h.id, buyer, ref, amount, h.authority)
	require.NoError(h.t, err)
	return h.submit(instruction.KindMint, h.id, &instruction.MintPayload{
		Units: units,
		Payment: instruction.PaymentSpec{
			Kind: instruction.PaymentDirect, Ref: ref, Amount: amount, Attestation: att,
		},
	}, h.buyer)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	return e
}

// ---------------------------------------------------------------------------
// Happy path
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestMintAndQuery(t *testing.T) {
	h := newHarness(t)
	buyer, err := identity.FromPublicKey(h.buyer.PubKey())
	require.NoError(t, err)

	w := h.mint(2, 200)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res instructionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "mint", res.Kind)
	require.NotNil(t, res.Result.Receipt)
	assert.Equal(t, buyer, res.Result.Receipt.Identity)
	require.Len(t, res.Result.Receipt.TokenIDs, 2)

	w = h.do(http.MethodGet, "/v1/collections/"+h.id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cv CollectionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cv))
	assert.Equal(t, "genesis", cv.Name)
	assert.Equal(t, uint64(2), cv.TotalMinted)
	assert.Equal(t, uint64(3), cv.Remaining)
	assert.True(t, cv.Finalized)
	assert.Equal(t, uint64(200), cv.Proceeds)
	require.Len(t, cv.Stages, 1)
	assert.True(t, cv.Stages[0].Open)
	assert.Equal(t, "open", cv.Stages[0].Eligibility)
	require.NotNil(t, cv.ActiveStage)
	assert.Equal(t, uint32(0), *cv.ActiveStage)

	w = h.do(http.MethodGet, fmt.Sprintf("/v1/collections/%s/records/%s/0", h.id, buyer), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rv RecordView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rv))
	assert.Equal(t, uint64(2), rv.UnitsMinted)

	tokenID := res.Result.Receipt.TokenIDs[0]
	w = h.do(http.MethodGet, fmt.Sprintf("/v1/collections/%s/tokens/%d", h.id, tokenID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tv TokenView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tv))
	assert.Equal(t, tokenID, tv.TokenID)
	assert.Equal(t, buyer, tv.Owner)

	w = h.do(http.MethodGet, fmt.Sprintf("/v1/collections/%s/tokens", h.id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Tokens []TokenView `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Tokens, 2)
}

func TestActiveStage(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, fmt.Sprintf("/v1/collections/%s/stages/active", h.id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Active bool      `json:"active"`
		Stage  StageView `json:"stage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Active)
	assert.Equal(t, uint64(5), got.Stage.Remaining)

	w = h.do(http.MethodGet, fmt.Sprintf("/v1/collections/%s/stages/active?at=%d", h.id, now.Unix()-3600), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"active":false`)

	w = h.do(http.MethodGet, fmt.Sprintf("/v1/collections/%s/stages/active?at=soon", h.id), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.mint(1, 100).Code)

	w := h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nftstages_mint_attempts_total")
	assert.Contains(t, w.Body.String(), "nftstages_http_requests_total")
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func TestMintErrors(t *testing.T) {
	h := newHarness(t)

	w := h.mint(1, 50)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, uint32(6011), decodeError(t, w).Code)

	require.Equal(t, http.StatusOK, h.mint(3, 300).Code)
	w = h.mint(1, 100)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, uint32(6008), decodeError(t, w).Code)
}

func TestMint_SelfDeclaredPaymentRefused(t *testing.T) {
	h := newHarness(t)

	w := h.submit(instruction.KindMint, h.id, &instruction.MintPayload{
		Units:   3,
		Payment: instruction.PaymentSpec{Kind: instruction.PaymentDirect, Ref: payment.Ref{0xde, 0xad}, Amount: 1 << 62},
	}, h.buyer)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, decodeError(t, w).Error, "not attested")

	w = h.do(http.MethodGet, "/v1/collections/"+h.id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cv CollectionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cv))
	assert.Zero(t, cv.TotalMinted)
}

func TestAdminErrors(t *testing.T) {
	h := newHarness(t)

	w := h.submit(instruction.KindSetPaused, h.id, &instruction.PausePayload{Paused: true}, h.buyer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, uint32(6000), decodeError(t, w).Code)

	w = h.submit(instruction.KindAddStage, h.id, &instruction.StagePayload{Config: stage.Config{
		Index: 5, StartTime: now.Unix(), SupplyCap: 1, Eligibility: stage.Open(),
	}}, h.authority)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, uint32(6003), decodeError(t, w).Code)
}

func TestQueryErrors(t *testing.T) {
	h := newHarness(t)
	buyer, err := identity.FromPublicKey(h.buyer.PubKey())
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantErr  uint32
	}{
		{"bad collection id", "/v1/collections/xyz", http.StatusBadRequest, 0},
		{"unknown collection", "/v1/collections/" + collection.ID{9}.String(), http.StatusNotFound, 6013},
		{"unknown token", fmt.Sprintf("/v1/collections/%s/tokens/99", h.id), http.StatusNotFound, 6015},
		{"bad token id", fmt.Sprintf("/v1/collections/%s/tokens/abc", h.id), http.StatusBadRequest, 0},
		{"bad identity", fmt.Sprintf("/v1/collections/%s/records/zz/0", h.id), http.StatusBadRequest, 0},
		{"bad stage", fmt.Sprintf("/v1/collections/%s/records/%s/x", h.id, buyer), http.StatusBadRequest, 0},
		{"stage out of range", fmt.Sprintf("/v1/collections/%s/records/%s/4", h.id, buyer), http.StatusBadRequest, 6004},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, w).Code)
		})
	}
}

func TestSubmitInstruction_Malformed(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/v1/instructions", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/v1/instructions", []byte(`{"instruction":"00ff"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env, err := instruction.New(instruction.KindSetPaused, h.id, &instruction.PausePayload{Paused: true}, now, h.authority)
	require.NoError(t, err)
	env.IssuedAt++
	s, err := env.EncodeHex()
	require.NoError(t, err)
	w = h.do(http.MethodPost, "/v1/instructions", []byte(`{"instruction":"`+s+`"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.ErrUnauthorized, http.StatusForbidden},
		{engine.ErrCollectionNotFound, http.StatusNotFound},
		{engine.ErrInvalidStageConfig, http.StatusBadRequest},
		{engine.ErrStageNotActive, http.StatusConflict},
		{engine.ErrGlobalSupplyExceeded, http.StatusConflict},
		{engine.ErrPaymentReused, http.StatusPaymentRequired},
		{instruction.ErrStale, http.StatusForbidden},
		{instruction.ErrUnattestedPayment, http.StatusPaymentRequired},
		{fmt.Errorf("%w: short", payment.ErrInvalidTx), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, _ := statusFor(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}
