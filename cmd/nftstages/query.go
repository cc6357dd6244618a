package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bitfsorg/nftstages-go/api"
	"github.com/bitfsorg/nftstages-go/engine"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/metrics"
)

// query opens the database read side and runs fn against the engine.
func (a *app) query(fn func(eng *engine.Engine) error) error {
	eng, s, err := a.openEngine()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(eng)
}

func runShow(a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	coll := collectionFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	return a.query(func(eng *engine.Engine) error {
		st, err := eng.Collection(id)
		if err != nil {
			return err
		}
		return a.printJSON(api.NewCollectionView(st, eng.Now()))
	})
}

func runRecord(a *app, args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	coll := collectionFlag(fs)
	who := fs.String("identity", "", "hex public key")
	stageIdx := fs.Uint("stage", 0, "stage index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	ident, err := identity.ParseHex(*who)
	if err != nil {
		return err
	}
	return a.query(func(eng *engine.Engine) error {
		rec, err := eng.MintRecord(id, ident, uint32(*stageIdx))
		if err != nil {
			return err
		}
		return a.printJSON(api.NewRecordView(rec))
	})
}

func runActive(a *app, args []string) error {
	fs := flag.NewFlagSet("active", flag.ContinueOnError)
	coll := collectionFlag(fs)
	atFlag := fs.String("at", "", "time to resolve at (unix seconds or RFC3339); default now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	at, err := parseTime(*atFlag)
	if err != nil {
		return err
	}
	return a.query(func(eng *engine.Engine) error {
		if *atFlag == "" {
			at = eng.Now()
		}
		st, err := eng.Collection(id)
		if err != nil {
			return err
		}
		entry, found, err := eng.ActiveStage(id, at)
		if err != nil {
			return err
		}
		if !found {
			return a.printJSON(map[string]any{"active": false, "at": at})
		}
		return a.printJSON(map[string]any{
			"active": true,
			"at":     at,
			"stage":  api.NewStageView(st, int(entry.Config.Index), at),
		})
	})
}

func runToken(a *app, args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	coll := collectionFlag(fs)
	tokenID := fs.Int64("token", -1, "token ID; omit to list every token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := parseCollection(*coll)
	if err != nil {
		return err
	}
	return a.query(func(eng *engine.Engine) error {
		if *tokenID >= 0 {
			tok, err := eng.Token(id, uint64(*tokenID))
			if err != nil {
				return err
			}
			return a.printJSON(api.NewTokenView(tok))
		}
		toks, err := eng.Tokens(id)
		if err != nil {
			return err
		}
		out := make([]api.TokenView, len(toks))
		for i, t := range toks {
			out[i] = api.NewTokenView(t)
		}
		return a.printJSON(map[string]any{"tokens": out})
	})
}

func runServe(a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	listen := fs.String("listen", a.cfg.ListenAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	eng, s, err := a.openEngine(engine.WithObserver(m))
	if err != nil {
		return err
	}
	defer s.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := api.New(eng, a.processor(eng), api.WithLogger(a.log), api.WithMetrics(m, reg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.log.Info().
		Str("db", a.cfg.DatabasePath()).
		Str("network", a.cfg.Network).
		Msg("serve_starting")
	return srv.Run(ctx, *listen)
}
