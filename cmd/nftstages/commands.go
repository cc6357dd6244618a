package main

import (
	"bytes"
	"context"
	"encoding"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bitfsorg/nftstages-go/allowlist"
	"github.com/bitfsorg/nftstages-go/collection"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/instruction"
	"github.com/bitfsorg/nftstages-go/payment"
	"github.com/bitfsorg/nftstages-go/rootdns"
	"github.com/bitfsorg/nftstages-go/stage"
	"github.com/bitfsorg/nftstages-go/store"
)

const remoteTimeout = 30 * time.Second

// signFlags are shared by every command that signs an instruction.
type signFlags struct {
	key    *string
	remote *string
	print  *bool
}

func addSignFlags(fs *flag.FlagSet) signFlags {
	return signFlags{
		key:    fs.String("key", getEnv("NFTSTAGES_KEY", ""), "signer key file"),
		remote: fs.String("remote", "", "submit to this API base URL instead of the local database"),
		print:  fs.Bool("print", false, "print the signed instruction without submitting it"),
	}
}

func collectionFlag(fs *flag.FlagSet) *string {
	return fs.String("collection", "", "collection ID (hex)")
}

func parseCollection(s string) (collection.ID, error) {
	if s == "" {
		return collection.ID{}, errors.New("-collection is required")
	}
	return collection.ParseID(s)
}

// openEngine opens the configured database.
func (a *app) openEngine(opts ...engine.Option) (*engine.Engine, store.Store, error) {
	s, err := store.OpenBoltStore(a.cfg.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	opts = append([]engine.Option{engine.WithLogger(a.log)}, opts...)
	return engine.New(s, opts...), s, nil
}

func (a *app) processor(eng *engine.Engine) *instruction.Processor {
	return instruction.NewProcessor(eng,
		instruction.WithTreasury(a.cfg.TreasuryAddress),
		instruction.WithMaxClockSkew(a.cfg.MaxClockSkew),
		instruction.WithProcessorLogger(a.log),
	)
}

// submit signs payload and applies it locally, posts it to a remote API, or
// prints it.
func (a *app) submit(sf signFlags, kind instruction.Kind, id collection.ID, payload encoding.BinaryMarshaler) error {
	priv, err := loadSigner(*sf.key)
	if err != nil {
		return err
	}
	env, err := instruction.New(kind, id, payload, time.Now(), priv)
	if err != nil {
		return err
	}
	encoded, err := env.EncodeHex()
	if err != nil {
		return err
	}

	switch {
	case *sf.print:
		return a.printJSON(map[string]any{"kind": kind.String(), "signer": env.Signer, "instruction": encoded})
	case *sf.remote != "":
		return a.post(*sf.remote, encoded)
	}

	eng, s, err := a.openEngine()
	if err != nil {
		return err
	}
	defer s.Close()
	res, err := a.processor(eng).Process(env)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]any{"kind": kind.String(), "result": res})
}

func (a *app) post(base, encoded string) error {
	body, err := json.Marshal(map[string]string{"instruction": encoded})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
	defer cancel()
	url := strings.TrimSuffix(base, "/") + "/v1/instructions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(out)))
	}
	_, err = a.stdout.Write(out)
	return err
}

// parseTime accepts unix seconds or RFC3339. Empty means zero.
func parseTime(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("time %q: want unix seconds or RFC3339", s)
	}
	return t.Unix(), nil
}

func runInit(a *app, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := addSignFlags(fs)
	name := fs.String("name", "", "collection name")
	baseURI := fs.String("base-uri", "", "metadata base URI")
	supply := fs.Uint64("supply", 0, "total supply cap")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.submit(sf, instruction.KindInitialize, collection.ID{}, &instruction.InitializePayload{
		Name:           *name,
		BaseURI:        *baseURI,
		TotalSupplyCap: *supply,
	})
}

func runAddStage(a *app, args []string) error {
	return runStage(a, "add-stage", instruction.KindAddStage, args)
}

func runUpdateStage(a *app, args []string) error {
	return runStage(a, "update-stage", instruction.KindUpdateStage, args)
}

func runStage(a *app, name string, kind instruction.Kind, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	sf := addSignFlags(fs)
	coll := collectionFlag(fs)
	index := fs.Uint("index", 0, "stage index")
	start := fs.String("start", "", "start time (unix seconds or RFC3339)")
	end := fs.String("end", "", "end time; empty = until the next stage starts")
	price := fs.Uint64("price", 0, "unit price")
	eligibility := fs.String("eligibility", "open", "open or allowlist")
	rootHex := fs.String("root", "", "allowlist root (hex)")
	allowFile := fs.String("allowlist-file", "", "compute the root from this identity file")
	walletCap := fs.Uint64("wallet-cap", 0, "per-wallet cap; 0 = unlimited")
	supplyCap := fs.Uint64("supply-cap", 0, "stage supply cap")
	concurrent := fs.Bool("concurrent", false, "concurrent tier overlapping earlier stages")
	verifyDomain := fs.String("verify-domain", "", "require the root to match the one published in DNS for this domain")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}

	cfg := stage.Config{
		Index:        uint32(*index),
		Price:        *price,
		PerWalletCap: *walletCap,
		SupplyCap:    *supplyCap,
		Concurrent:   *concurrent,
	}
	if cfg.StartTime, err = parseTime(*start); err != nil {
		return err
	}
	if cfg.EndTime, err = parseTime(*end); err != nil {
		return err
	}
	elig, err := stage.ParseKind(*eligibility)
	if err != nil {
		return err
	}
	cfg.Eligibility.Kind = elig
	if elig == stage.KindAllowlist {
		if cfg.Eligibility.Root, err = stageRoot(*rootHex, *allowFile); err != nil {
			return err
		}
	}
	if *verifyDomain != "" {
		ctx, cancel := context.WithTimeout(context.Background(), rootdns.DefaultTimeout)
		defer cancel()
		r := rootdns.NewDNSSECResolver(a.cfg.DNSUpstream)
		if err := rootdns.VerifyStage(ctx, r, *verifyDomain, cfg.Eligibility); err != nil {
			return err
		}
	}
	return a.submit(sf, kind, id, &instruction.StagePayload{Config: cfg})
}

func stageRoot(rootHex, allowFile string) ([stage.RootSize]byte, error) {
	var root [stage.RootSize]byte
	switch {
	case allowFile != "":
		tree, err := buildTree(allowFile)
		if err != nil {
			return root, err
		}
		return tree.Root(), nil
	case rootHex != "":
		b, err := hex.DecodeString(rootHex)
		if err != nil || len(b) != stage.RootSize {
			return root, fmt.Errorf("-root must be %d hex bytes", stage.RootSize)
		}
		copy(root[:], b)
		return root, nil
	default:
		return root, errors.New("allowlist stages need -root or -allowlist-file")
	}
}

func runSetPaused(a *app, args []string, paused bool) error {
	name := "resume"
	if paused {
		name = "pause"
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	sf := addSignFlags(fs)
	coll := collectionFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	return a.submit(sf, instruction.KindSetPaused, id, &instruction.PausePayload{Paused: paused})
}

func runMint(a *app, args []string) error {
	fs := flag.NewFlagSet("mint", flag.ContinueOnError)
	sf := addSignFlags(fs)
	coll := collectionFlag(fs)
	stageIdx := fs.Uint("stage", 0, "stage index")
	units := fs.Uint64("units", 1, "units to mint")
	proofHex := fs.String("proof", "", "comma-separated hex proof nodes")
	allowFile := fs.String("allowlist-file", "", "compute the proof from this identity file")
	refHex := fs.String("ref", "", "pre-settled payment reference (hex)")
	amount := fs.Uint64("amount", 0, "amount paid under -ref")
	attestation := fs.String("attestation", "", "authority attestation of -ref and -amount (hex, see attest-payment)")
	rawTx := fs.String("rawtx", "", "hex BSV transaction paying the treasury")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}

	pl := &instruction.MintPayload{StageIndex: uint32(*stageIdx), Units: *units}
	switch {
	case *rawTx != "":
		b, err := hex.DecodeString(*rawTx)
		if err != nil {
			return fmt.Errorf("-rawtx: %w", err)
		}
		pl.Payment = instruction.PaymentSpec{Kind: instruction.PaymentRawTx, RawTx: b}
	case *refHex != "":
		ref, err := payment.ParseRef(*refHex)
		if err != nil {
			return err
		}
		att, err := hex.DecodeString(*attestation)
		if err != nil {
			return fmt.Errorf("-attestation: %w", err)
		}
		pl.Payment = instruction.PaymentSpec{Kind: instruction.PaymentDirect, Ref: ref, Amount: *amount, Attestation: att}
	}

	switch {
	case *allowFile != "":
		priv, err := loadSigner(*sf.key)
		if err != nil {
			return err
		}
		who, err := identity.FromPublicKey(priv.PubKey())
		if err != nil {
			return err
		}
		tree, err := buildTree(*allowFile)
		if err != nil {
			return err
		}
		if pl.Proof, err = tree.Proof(who); err != nil {
			return err
		}
	case *proofHex != "":
		if pl.Proof, err = allowlist.ParseProofHex(strings.Split(*proofHex, ",")); err != nil {
			return err
		}
	}
	return a.submit(sf, instruction.KindMint, id, pl)
}

// runAttestPayment lets the collection authority vouch for a payment settled
// outside the chain so the buyer can mint with -ref and -amount.
func runAttestPayment(a *app, args []string) error {
	fs := flag.NewFlagSet("attest-payment", flag.ContinueOnError)
	key := fs.String("key", getEnv("NFTSTAGES_KEY", ""), "collection authority key file")
	coll := collectionFlag(fs)
	buyer := fs.String("buyer", "", "buyer identity (hex public key)")
	refHex := fs.String("ref", "", "payment reference (hex)")
	amount := fs.Uint64("amount", 0, "amount settled")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	who, err := identity.ParseHex(*buyer)
	if err != nil {
		return err
	}
	ref, err := payment.ParseRef(*refHex)
	if err != nil {
		return err
	}
	priv, err := loadSigner(*key)
	if err != nil {
		return err
	}
	att, err := instruction.AttestPayment(id, who, ref, *amount, priv)
	if err != nil {
		return err
	}
	return a.printJSON(map[string]any{
		"collection":  id,
		"buyer":       who,
		"ref":         ref,
		"amount":      *amount,
		"attestation": hex.EncodeToString(att),
	})
}

func runLevelUp(a *app, args []string) error {
	fs := flag.NewFlagSet("level-up", flag.ContinueOnError)
	sf := addSignFlags(fs)
	coll := collectionFlag(fs)
	token := fs.Uint64("token", 0, "token ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	return a.submit(sf, instruction.KindLevelUp, id, &instruction.LevelUpPayload{TokenID: *token})
}
