package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ardanlabs/ledger/app/services/node/handlers"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/network"
	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {
	if err := run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run() error {

	// =========================================================================
	// Configuration

	cfg := config{
		Version: conf.Version{
			Build: build,
			Desc:  "proof of work ledger node",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// Logging

	log, err := logger.New("NODE", logger.Rotation{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer log.Sync()

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	if err := start(log, cfg.Web, cfg.Node); err != nil {
		log.Errorw("startup", "ERROR", err)
		return err
	}

	return nil
}

// config holds every setting of the node with its default value. Values
// are overridden through NODE_ environment variables or command line flags.
type config struct {
	conf.Version
	Web  webConfig
	Node nodeConfig
	Log  struct {
		File       string
		MaxSizeMB  int  `conf:"default:100"`
		MaxBackups int  `conf:"default:3"`
		MaxAgeDays int  `conf:"default:28"`
		Compress   bool `conf:"default:false"`
	}
}

type webConfig struct {
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
	DebugHost       string        `conf:"default:0.0.0.0:7080"`
	PublicHost      string        `conf:"default:0.0.0.0:8080"`
	PrivateHost     string        `conf:"default:0.0.0.0:9080"`
	CORSOrigins     []string      `conf:"default:*"`
}

type nodeConfig struct {
	Role        string        `conf:"default:Miner"`
	Strategy    string        `conf:"default:FirstResponder"`
	GenesisPath string        `conf:"default:zblock/genesis.json"`
	PeersDBPath string        `conf:"default:zblock/peers.db"`
	Bootstrap   []string      `conf:"default:0.0.0.0:9080;0.0.0.0:9180"`
	PeerTimeout time.Duration `conf:"default:5s"`
}

func start(log *zap.SugaredLogger, web webConfig, node nodeConfig) error {

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// =========================================================================
	// Blockchain Support

	gen, err := genesis.Load(node.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}
	log.Infow("startup", "status", "genesis", "difficulty", gen.Difficulty, "trans_per_block", gen.TransPerBlock)

	role, err := state.ParseRole(node.Role)
	if err != nil {
		return fmt.Errorf("parsing role: %w", err)
	}

	// The book remembers the addresses of peers between restarts so the node
	// has somewhere to start when the bootstrap list is stale.
	book, err := peer.OpenAddressBook(node.PeersDBPath)
	if err != nil {
		return fmt.Errorf("opening address book: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "closing address book")
		book.Close()
	}()

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	peerSet := peer.NewPeerSet()

	client := network.NewClient(network.Config{
		Host:      web.PrivateHost,
		Peers:     peerSet,
		Timeout:   node.PeerTimeout,
		EvHandler: ev,
	})

	joinCtx, joinCancel := context.WithTimeout(context.Background(), 4*node.PeerTimeout)
	defer joinCancel()

	if err := network.Join(joinCtx, client, book, node.Bootstrap); err != nil {
		return fmt.Errorf("joining network: %w", err)
	}

	seen, err := network.NewSeen(time.Minute)
	if err != nil {
		return fmt.Errorf("constructing seen filter: %w", err)
	}
	defer seen.Close()

	// The state value represents the blockchain node and manages the chain
	// and the mempool, and provides an API for application support.
	st, err := state.New(state.Config{
		Role:       role,
		Genesis:    gen,
		Host:       web.PrivateHost,
		Strategy:   node.Strategy,
		KnownPeers: peerSet,
		Gateway:    client,
		EvHandler:  ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the mining, the transaction and block
	// sharing and the peer updates. The worker registers itself with the
	// state and synchronizes the chain with the network.
	if err := worker.Run(st, ev); err != nil {
		return fmt.Errorf("starting worker: %w", err)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", web.DebugHost)

	debugMux := handlers.DebugMux(build, log, st)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 2)

	muxCfg := handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Book:     book,
		Seen:     seen,
		Evts:     evts,
		Origins:  web.CORSOrigins,
	}

	// =========================================================================
	// Start Public Service

	public := http.Server{
		Addr:         web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  web.ReadTimeout,
		WriteTimeout: web.WriteTimeout,
		IdleTimeout:  web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	private := http.Server{
		Addr:         web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  web.ReadTimeout,
		WriteTimeout: web.WriteTimeout,
		IdleTimeout:  web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		for _, srv := range []*http.Server{&private, &public} {
			ctx, cancel := context.WithTimeout(context.Background(), web.ShutdownTimeout)
			err := srv.Shutdown(ctx)
			cancel()

			if err != nil {
				srv.Close()
				return fmt.Errorf("could not stop server %s gracefully: %w", srv.Addr, err)
			}
		}
	}

	return nil
}
