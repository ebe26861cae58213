package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/theref/dkg-coordinator/admin"
	admincommon "github.com/theref/dkg-coordinator/admin/commands/common"
	admincoordinator "github.com/theref/dkg-coordinator/admin/commands/coordinator"
	"github.com/theref/dkg-coordinator/engine/access/rest"
	"github.com/theref/dkg-coordinator/module/coordinator"
	"github.com/theref/dkg-coordinator/module/eligibility"
	"github.com/theref/dkg-coordinator/module/metrics"
	"github.com/theref/dkg-coordinator/module/relay"
	"github.com/theref/dkg-coordinator/module/updatable_configs"
	"github.com/theref/dkg-coordinator/state/rituals/events"
	storagebadger "github.com/theref/dkg-coordinator/storage/badger"
)

func main() {

	var (
		datadir         string
		level           string
		restAddr        string
		adminPort       uint
		metricsPort     uint
		ritualTimeout   time.Duration
		maxDkgSize      uint32
		eligibilityPath string
		stakeSource     string
	)

	pflag.StringVar(&datadir, "datadir", "data", "directory to store the ritual registry")
	pflag.StringVar(&level, "loglevel", "info", "log level (debug, info, warn, error)")
	pflag.StringVar(&restAddr, "rest-addr", ":8070", "listen address of the REST API server")
	pflag.UintVar(&adminPort, "admin-port", 9002, "port of the admin command server (localhost only)")
	pflag.UintVar(&metricsPort, "metrics-port", 8080, "port of the prometheus metrics server")
	pflag.DurationVar(&ritualTimeout, "ritual-timeout", updatable_configs.DefaultRitualTimeout, "time window for a ritual to complete before it reads as timed out")
	pflag.Uint32Var(&maxDkgSize, "max-dkg-size", updatable_configs.DefaultMaxDkgSize, "maximum number of participants per ritual")
	pflag.StringVar(&eligibilityPath, "eligibility-table", "", "path to the JSON table of authorized providers")
	pflag.StringVar(&stakeSource, "stake-source", "", "address of the source ledger whose stake updates are accepted by the relay")
	pflag.Parse()

	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	log = log.Level(lvl)

	db, err := badger.Open(badger.DefaultOptions(datadir).WithLogger(nil))
	if err != nil {
		log.Fatal().Err(err).Str("datadir", datadir).Msg("could not open ritual registry")
	}
	defer db.Close()

	distributor := events.NewDistributor()
	params, err := updatable_configs.NewRitualParams(ritualTimeout, maxDkgSize, log, distributor)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ritual parameters")
	}
	configManager := updatable_configs.NewManager()
	params.Register(configManager)

	oracle := eligibility.NewStatic(nil)
	if eligibilityPath != "" {
		oracle, err = eligibility.NewStaticFromFile(eligibilityPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load eligibility table")
		}
	}

	collector := metrics.NewCoordinatorCollector()
	c := coordinator.New(
		log,
		storagebadger.NewRituals(db),
		storagebadger.NewProviderKeys(db),
		oracle,
		params,
		distributor,
		collector,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the relay keeps the eligibility table current from the source ledger
	if stakeSource != "" {
		if !common.IsHexAddress(stakeSource) {
			log.Fatal().Str("stake_source", stakeSource).Msg("invalid stake source address")
		}
		tunnel := relay.NewTunnel()
		stakeRelay := relay.New(log, common.HexToAddress(stakeSource), oracle, tunnel)
		go stakeRelay.Run(ctx)
	}

	runner := admin.NewCommandRunner(log)
	setConfig := admincommon.NewSetConfigCommand(configManager)
	getConfig := admincommon.NewGetConfigCommand(configManager)
	readRitual := admincoordinator.NewReadRitualCommand(c)
	runner.RegisterHandler("set-config", setConfig.Validator, setConfig.Handler)
	runner.RegisterHandler("get-config", getConfig.Validator, getConfig.Handler)
	runner.RegisterHandler("read-ritual", readRitual.Validator, readRitual.Handler)

	metricsServer := metrics.NewServer(log, metricsPort)
	<-metricsServer.Ready()

	adminServer := admin.NewServer(log, adminPort, runner)
	<-adminServer.Ready()

	restServer := rest.NewServer(rest.NewAPIHandler(c, log), restAddr, log)
	go func() {
		log.Info().Str("address", restAddr).Msg("rest server started")
		err := restServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("rest server stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = restServer.Shutdown(shutdownCtx)
	shutdownCancel()
	<-adminServer.Done()
	<-metricsServer.Done()
}
