// The Main function of the service. It sets everything up: configuration,
// the daemon connection, the artwork pipeline, the cache store and the
// webserver, and then runs until a stop signal arrives.
//
// At the moment it is in package src because I import it from the
// project's root folder.
package src

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/mpdart/mpdart/src/art"
	"github.com/mpdart/mpdart/src/artwork"
	"github.com/mpdart/mpdart/src/cache"
	"github.com/mpdart/mpdart/src/config"
	"github.com/mpdart/mpdart/src/daemon"
	"github.com/mpdart/mpdart/src/helpers"
	"github.com/mpdart/mpdart/src/history"
	"github.com/mpdart/mpdart/src/mpdconn"
	"github.com/mpdart/mpdart/src/overlay"
	"github.com/mpdart/mpdart/src/render"
	"github.com/mpdart/mpdart/src/scaler"
	"github.com/mpdart/mpdart/src/syncer"
	"github.com/mpdart/mpdart/src/webserver"
)

var (
	showVersion bool
	configPath  string
)

func init() {
	flag.BoolVar(&showVersion, "v", false, "Print version information and exit.")
	flag.StringVar(&configPath, "config", "", "Directory with an alternate config.json.")
}

// Main is the only thing run in the project's root main.go file. For all
// intents and purposes this is the main function.
func Main(sqlFilesFS fs.FS) {
	flag.Parse()

	if showVersion {
		printVersionInformation()
		return
	}

	cfg := new(config.Config)
	cfg.UserPath = configPath
	if err := cfg.FindAndParse(); err != nil {
		log.Println(err)
		os.Exit(1)
	}

	if !daemon.Debug {
		logFile := cfg.LogFile
		if logFile == "" {
			userPath, err := helpers.ProjectUserPath()
			if err != nil {
				log.Println(err)
				os.Exit(1)
			}
			logFile = filepath.Join(userPath, "logfile")
		}
		if err := helpers.SetLogsFile(logFile); err != nil {
			log.Println(err)
			os.Exit(1)
		}
	}

	sqls, err := fs.Sub(sqlFilesFS, "sqls")
	if err != nil {
		log.Printf("loading sqls subFS: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := run(ctx, *cfg, sqls); err != nil && !errors.Is(err, context.Canceled) {
		log.Println(err)
		os.Exit(1)
	}

	log.Println("Service stopped.")
}

// run wires all the components together and blocks until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, sqls fs.FS) error {
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return err
	}

	appFs := afero.NewOsFs()

	manager := mpdconn.New(cfg.MPD)
	defer manager.Close()

	var remote artwork.RemoteFinder
	if cfg.CoverArtArchive.Enabled {
		client := art.NewClient(cfg.CoverArtArchive.UserAgent, time.Second)
		if cfg.CoverArtArchive.MinScore > 0 {
			client.MinScore = cfg.CoverArtArchive.MinScore
		}
		remote = client
	}

	resolver := artwork.NewResolver(
		appFs,
		manager,
		remote,
		cfg.MusicDir,
		cfg.DefaultImage,
	)

	width, height := cfg.Resize[0], cfg.Resize[1]
	sclr := scaler.New(ctx, width, height)
	defer sclr.Cancel()

	var compositor syncer.Compositor
	if cfg.Overlay.Enabled {
		compositor = overlay.New(width, height, cfg.Overlay.FontFile)
	}

	store := cache.NewStore(
		appFs,
		filepath.Join(cfg.OutputDir, cfg.CurrentFilename),
	)

	var journal *history.Journal
	journal, err := history.New(cfg.HistoryDatabase, sqls)
	if err != nil {
		// The journal is a nicety. The artwork pipeline works without it.
		log.Printf("opening the sync journal failed: %s", err)
		journal = nil
	} else {
		defer journal.Close()
	}

	loop := syncer.New(
		manager,
		resolver,
		sclr,
		compositor,
		store,
		render.New(cfg.DisplayCmd),
		journalRecorder(journal),
	)

	var watch *syncer.SidecarWatch
	if cfg.MusicDir != "" {
		watch, err = syncer.NewSidecarWatch(resolver, loop)
		if err != nil {
			log.Printf("sidecar directory watching is disabled: %s", err)
		} else {
			loop.SetDirWatch(watch)
		}
	}

	srv := webserver.NewServer(cfg, store, loop, journalHistorian(journal))
	srv.Serve()
	defer srv.Wait()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	if watch != nil {
		g.Go(func() error {
			return watch.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		srv.Stop()
		return nil
	})

	return g.Wait()
}

// signalContext returns a context which is cancelled when one of the
// daemon stop signals arrives.
func signalContext() (context.Context, context.CancelFunc) {
	signals := make([]os.Signal, 0, len(daemon.StopSignals))
	for _, sig := range daemon.StopSignals {
		signals = append(signals, sig)
	}
	return signal.NotifyContext(context.Background(), signals...)
}

// journalRecorder converts a possibly nil *history.Journal into the loop's
// recorder argument without producing a typed-nil interface.
func journalRecorder(journal *history.Journal) syncer.Recorder {
	if journal == nil {
		return nil
	}
	return journal
}

// journalHistorian does the same for the webserver's history handler.
func journalHistorian(journal *history.Journal) webserver.Historian {
	if journal == nil {
		return nil
	}
	return journal
}
