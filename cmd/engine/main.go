package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"outreach-engine/internal/ai"
	"outreach-engine/internal/config"
	"outreach-engine/internal/discover"
	"outreach-engine/internal/domain"
	"outreach-engine/internal/drafts"
	"outreach-engine/internal/emails"
	"outreach-engine/internal/events"
	"outreach-engine/internal/httpapi"
	"outreach-engine/internal/orchestrator"
	"outreach-engine/internal/pipeline"
	"outreach-engine/internal/rank"
	"outreach-engine/internal/research"
	"outreach-engine/internal/scheduler"
	"outreach-engine/internal/secrets"
	"outreach-engine/internal/store"
	"outreach-engine/internal/webutil"
)

func main() {
	// Engine data dir: use env if provided (a desktop shell can pass one),
	// else local folder.
	dataDir := os.Getenv("OUTREACH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir: two processes sharing a sqlite file would
	// fight over the write lock in confusing ways.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	held, err := lock.TryLock()
	if err != nil {
		log.Fatalf("data dir lock: %v", err)
	}
	if !held {
		log.Fatalf("another engine is already running in %s", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config invalid (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store: sqlite when configured, in-memory otherwise. Both behave the
	// same; orchestration never knows which one it got.
	var st store.Store
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path != "" {
		dbPath := cfg.Store.Path
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(dataDir, dbPath)
		}
		sq, err := store.OpenSQLite(dbPath)
		if err != nil {
			log.Fatalf("sqlite open failed (%s): %v", dbPath, err)
		}
		st = sq
		log.Printf("store=sqlite path=%s", dbPath)
	} else {
		st = store.NewMemory()
		log.Printf("store=memory (campaigns vanish on restart)")
	}
	defer st.Close()

	hub := events.NewHub()

	// Collaborators
	limiter := webutil.NewHostLimiter(cfg.Search.RatePerSec, cfg.Search.Burst)
	finder := discover.NewFinder(limiter, rank.RuleScorer{Cfg: cfg})
	domains := emails.NewDomainFinder(limiter)
	resolver := emails.NewResolver(domains)

	apiKey, err := secrets.GetOpenAIKey(secrets.OpenAIKeyringAccount(cfg))
	if err != nil {
		log.Printf("openai key unavailable (%v); drafts fall back to templates", err)
	}
	gen := ai.NewClient(ai.ClientConfig{
		APIKey:  apiKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})

	// Retune the long-lived collaborators whenever the config or the stored
	// key changes. The runner reads cfgVal itself at the start of each run.
	applyCfg := func(cfg config.Config) {
		limiter.SetLimit(cfg.Search.RatePerSec, cfg.Search.Burst)
		key, err := secrets.GetOpenAIKey(secrets.OpenAIKeyringAccount(cfg))
		if err != nil {
			log.Printf("openai key unavailable (%v); drafts fall back to templates", err)
		}
		gen.SetCredentials(key, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	}

	researcher := research.NewResearcher(limiter, domains, gen)
	writer := drafts.NewWriter(gen)

	runner := &pipeline.Runner{
		Store: st,
		Hub:   hub,
		Collab: pipeline.Collaborators{
			Discover: func(ctx context.Context, req pipeline.DiscoverRequest) ([]domain.Contact, error) {
				return finder.DiscoverContacts(ctx, discover.Request{
					Company:      req.Company,
					Role:         req.Role,
					Hints:        req.Hints,
					TargetCount:  req.TargetCount,
					ExcludeURLs:  req.ExcludeURLs,
					ExcludeNames: req.ExcludeNames,
				})
			},
			Resolve:  resolver.ResolveEmails,
			Research: researcher.ResearchCompany,
			Drafts: func(ctx context.Context, contacts []domain.Contact, resolutions map[string]domain.EmailResolution, dctx pipeline.DraftContext) ([]domain.Draft, error) {
				return writer.GenerateDrafts(ctx, contacts, resolutions, draftContext(dctx))
			},
			SingleDraft: func(ctx context.Context, contact domain.Contact, res domain.EmailResolution, dctx pipeline.DraftContext) (domain.Draft, error) {
				return writer.GenerateSingleDraft(ctx, contact, res, draftContext(dctx))
			},
		},
		Cfg:            &cfgVal,
		Timeouts:       pipeline.TimeoutsFrom(cfg),
		TargetContacts: cfg.Pipeline.TargetContacts,
	}

	orch := orchestrator.New(ctx, st, runner)

	if cfg.Retention.Days > 0 {
		go scheduler.Every(ctx, time.Duration(cfg.Retention.SweepHours)*time.Hour, "retention", func(ctx context.Context) error {
			n, err := st.CleanupOld(ctx, cfg.Retention.Days)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("[retention] pruned %d old campaigns", n)
			}
			return nil
		})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Orch:        orch,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		OnReload:    applyCfg,
	})

	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	)

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s", addr)

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func draftContext(dctx pipeline.DraftContext) drafts.Context {
	return drafts.Context{
		Company:        dctx.Company,
		Role:           dctx.Role,
		CompanyContext: dctx.CompanyContext,
		Hints:          dctx.Hints,
	}
}

