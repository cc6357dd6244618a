package instruction

import (
	"encoding"
	"fmt"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/rs/zerolog"

	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/payment"
)

// DefaultMaxClockSkew is how far IssuedAt may be from the processor's clock.
const DefaultMaxClockSkew = 5 * time.Minute

// New builds a signed envelope around payload.
func New(kind Kind, id collection.ID, payload encoding.BinaryMarshaler, issuedAt time.Time, priv *ec.PrivateKey) (*Envelope, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: payload", ErrNilParam)
	}
	body, err := payload.MarshalBinary()
	if err != nil {
		return nil, err
	}
	env := &Envelope{
		Version:      EnvelopeV1,
		Kind:         kind,
		CollectionID: id,
		IssuedAt:     issuedAt.Unix(),
		Payload:      body,
	}
	if err := env.Sign(priv); err != nil {
		return nil, err
	}
	return env, nil
}

// Result is the outcome of a processed envelope. Which fields are set
// depends on Kind.
type Result struct {
	Kind         Kind              `json:"-"`
	CollectionID collection.ID     `json:"collection_id"`
	StageCount   int               `json:"stage_count,omitempty"`
	Paused       *bool             `json:"paused,omitempty"`
	Receipt      *engine.Receipt   `json:"receipt,omitempty"`
	Token        *collection.Token `json:"token,omitempty"`
}

// Processor authenticates envelopes and dispatches them to an engine.
type Processor struct {
	eng      *engine.Engine
	treasury string
	maxSkew  time.Duration
	clock    func() time.Time
	log      zerolog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithTreasury sets the address raw-transaction payments must pay.
func WithTreasury(addr string) ProcessorOption {
	return func(p *Processor) { p.treasury = addr }
}

// WithMaxClockSkew sets the accepted IssuedAt window.
func WithMaxClockSkew(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.maxSkew = d }
}

// WithProcessorClock sets the time source used for freshness checks.
func WithProcessorClock(clock func() time.Time) ProcessorOption {
	return func(p *Processor) { p.clock = clock }
}

// WithProcessorLogger sets the logger.
func WithProcessorLogger(l zerolog.Logger) ProcessorOption {
	return func(p *Processor) { p.log = l.With().Str("component", "instruction").Logger() }
}

// NewProcessor creates a Processor dispatching to eng.
func NewProcessor(eng *engine.Engine, opts ...ProcessorOption) *Processor {
	p := &Processor{
		eng:     eng,
		maxSkew: DefaultMaxClockSkew,
		clock:   time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process verifies env and runs the engine operation it encodes with the
// signer as caller.
func (p *Processor) Process(env *Envelope) (*Result, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: envelope", ErrNilParam)
	}
	if err := env.VerifySignature(); err != nil {
		return nil, err
	}
	now := p.clock().Unix()
	skew := now - env.IssuedAt
	if skew < 0 {
		skew = -skew
	}
	if time.Duration(skew)*time.Second > p.maxSkew {
		return nil, fmt.Errorf("%w: issued at %d, now %d", ErrStale, env.IssuedAt, now)
	}

	res, err := p.dispatch(env)
	if err != nil {
		p.log.Debug().Err(err).Str("kind", env.Kind.String()).Str("signer", env.Signer.String()).Msg("instruction_failed")
		return nil, err
	}
	res.Kind = env.Kind
	p.log.Debug().Str("kind", env.Kind.String()).Str("collection", res.CollectionID.String()).Msg("instruction_applied")
	return res, nil
}

func (p *Processor) dispatch(env *Envelope) (*Result, error) {
	caller := env.Signer
	switch env.Kind {
	case KindInitialize:
		var pl InitializePayload
		if err := pl.UnmarshalBinary(env.Payload); err != nil {
			return nil, err
		}
		derived := collection.DeriveID(caller, pl.Name)
		if env.CollectionID != (collection.ID{}) && env.CollectionID != derived {
			return nil, fmt.Errorf("%w: collection ID does not match signer and name", ErrInvalidPayload)
		}
		id, err := p.eng.Initialize(caller, pl.Name, pl.BaseURI, pl.TotalSupplyCap)
		if err != nil {
			return nil, err
		}
		return &Result{CollectionID: id}, nil

	case KindAddStage:
		var pl StagePayload
		if err := pl.UnmarshalBinary(env.Payload); err != nil {
			return nil, err
		}
		n, err := p.eng.AddStage(caller, env.CollectionID, pl.Config)
		if err != nil {
			return nil, err
		}
		return &Result{CollectionID: env.CollectionID, StageCount: n}, nil

	case KindUpdateStage:
		var pl StagePayload
		if err := pl.UnmarshalBinary(env.Payload); err != nil {
			return nil, err
		}
		if err := p.eng.UpdateStage(caller, env.CollectionID, pl.Config); err != nil {
			return nil, err
		}
		return &Result{CollectionID: env.CollectionID}, nil

	case KindSetPaused:
		var pl PausePayload
		if err := pl.UnmarshalBinary(env.Payload); err != nil {
			return nil, err
		}
		if err := p.eng.SetPaused(caller, env.CollectionID, pl.Paused); err != nil {
			return nil, err
		}
		paused := pl.Paused
		return &Result{CollectionID: env.CollectionID, Paused: &paused}, nil

	case KindMint:
		var pl MintPayload
		if err := pl.UnmarshalBinary(env.Payload); err != nil {
			return nil, err
		}
		pay, err := p.resolvePayment(env, pl.Payment)
		if err != nil {
			return nil, err
		}
		receipt, err := p.eng.Mint(engine.MintRequest{
			CollectionID: env.CollectionID,
			Identity:     caller,
			StageIndex:   pl.StageIndex,
			Units:        pl.Units,
			Proof:        pl.Proof,
			Payment:      pay,
		})
		if err != nil {
			return nil, err
		}
		return &Result{CollectionID: env.CollectionID, Receipt: receipt}, nil

	case KindLevelUp:
		var pl LevelUpPayload
		if err := pl.UnmarshalBinary(env.Payload); err != nil {
			return nil, err
		}
		tok, err := p.eng.LevelUp(caller, env.CollectionID, pl.TokenID)
		if err != nil {
			return nil, err
		}
		return &Result{CollectionID: env.CollectionID, Token: tok}, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, env.Kind)
	}
}

// resolvePayment turns the payload's funding into an engine payment. The
// buyer signs the envelope, so a direct payment is only trusted with the
// collection authority's attestation.
func (p *Processor) resolvePayment(env *Envelope, ps PaymentSpec) (payment.Payment, error) {
	switch ps.Kind {
	case PaymentNone:
		return payment.Payment{}, nil
	case PaymentDirect:
		st, err := p.eng.Collection(env.CollectionID)
		if err != nil {
			return payment.Payment{}, err
		}
		if err := VerifyAttestation(st.Authority, env.CollectionID, env.Signer, ps.Ref, ps.Amount, ps.Attestation); err != nil {
			return payment.Payment{}, err
		}
		return payment.Payment{Ref: ps.Ref, Amount: ps.Amount}, nil
	case PaymentRawTx:
		if p.treasury == "" {
			return payment.Payment{}, ErrNoTreasury
		}
		return payment.FromRawTx(ps.RawTx, p.treasury)
	default:
		return payment.Payment{}, fmt.Errorf("%w: payment kind %d", ErrInvalidPayload, ps.Kind)
	}
}
