package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aguiarsc/groovy-player/internal/api"
	"github.com/aguiarsc/groovy-player/internal/catalog"
	"github.com/aguiarsc/groovy-player/internal/config"
	"github.com/aguiarsc/groovy-player/internal/device"
	"github.com/aguiarsc/groovy-player/internal/engine"
	"github.com/aguiarsc/groovy-player/internal/errmsg"
	"github.com/aguiarsc/groovy-player/internal/mpris"
	"github.com/aguiarsc/groovy-player/internal/session"
	"github.com/aguiarsc/groovy-player/internal/state"
	"github.com/aguiarsc/groovy-player/internal/stderr"
)

const seedTimeout = 30 * time.Second

func main() {
	playlistID := flag.Int64("playlist", 0, "playlist ID to start playing")
	flag.Parse()

	// Optional .env for GROOVY_API_URL / GROOVY_API_TOKEN
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Keep ALSA chatter out of the log stream
	if err := stderr.Start(logger); err != nil {
		logger.WithError(err).Warn("stderr capture unavailable")
	}
	defer stderr.Stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal(errmsg.Format(errmsg.OpConfigLoad, err))
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if !cfg.HasAPIConfig() {
		logger.Fatal("no catalog backend configured: set api.base_url in config.toml or GROOVY_API_URL")
	}

	stateMgr, err := state.Open()
	if err != nil {
		logger.Fatal(errmsg.Format(errmsg.OpStateOpen, err))
	}
	defer stateMgr.Close()

	client := api.New(cfg.API.BaseURL, cfg.API.Token)
	store := session.New(logger)
	dev := device.New(logger)
	eng := engine.New(store, dev, client, logger)

	restoreState(logger, cfg, stateMgr, store)

	persistDone := make(chan struct{})
	go persistChanges(logger, stateMgr, store, persistDone)

	eng.Start()

	mprisAdapter, err := mpris.New(store)
	if err != nil {
		logger.WithError(err).Warn("media key integration unavailable")
		mprisAdapter = nil
	}

	if err := seedPlayback(logger, client, store, *playlistID, flag.Args()); err != nil {
		logger.WithError(err).Error("could not start requested playback")
	}

	// Wait for shutdown signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")

	if mprisAdapter != nil {
		_ = mprisAdapter.Close()
	}
	_ = eng.Close()
	_ = dev.Close()
	store.Close()
	<-persistDone
}

// restoreState applies persisted volume and queue from the previous run.
func restoreState(logger *logrus.Logger, cfg *config.Config, stateMgr *state.Manager, store *session.Store) {
	volume, saved, err := stateMgr.GetVolume()
	if err != nil {
		logger.WithError(err).Warn(errmsg.Format(errmsg.OpStateLoad, err))
		saved = false
	}
	if !saved {
		volume = cfg.InitialVolume()
	}
	store.SetVolume(volume)

	if !cfg.RestoreQueue() {
		return
	}
	tracks, err := stateMgr.GetQueue()
	if err != nil {
		logger.WithError(err).Warn(errmsg.Format(errmsg.OpQueueLoad, err))
		return
	}
	for _, t := range tracks {
		store.AddToQueue(t)
	}
}

// persistChanges mirrors volume and queue changes into the state database
// until the store closes.
func persistChanges(logger *logrus.Logger, stateMgr *state.Manager, store *session.Store, done chan<- struct{}) {
	defer close(done)

	sub := store.Subscribe()
	for {
		select {
		case <-sub.Done:
			return
		case ev := <-sub.VolumeChanged:
			if err := stateMgr.SaveVolume(ev.Volume); err != nil {
				logger.WithError(err).Warn(errmsg.Format(errmsg.OpStateSave, err))
			}
		case ev := <-sub.QueueChanged:
			stateMgr.SaveQueue(ev.Tracks)
		}
	}
}

// seedPlayback starts playback from command line arguments: a playlist ID or
// a list of track IDs.
func seedPlayback(logger *logrus.Logger, client *api.Client, store *session.Store, playlistID int64, trackArgs []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	if playlistID > 0 {
		playlist, err := client.GetPlaylist(ctx, playlistID)
		if err != nil {
			return fmt.Errorf("%s", errmsg.Format(errmsg.OpPlaylistFetch, err))
		}
		logger.WithField("playlist", playlist.Name).Info("starting playlist")
		store.PlayPlaylist(*playlist, 0)
		return nil
	}

	if len(trackArgs) == 0 {
		return nil
	}

	tracks := make([]catalog.Track, 0, len(trackArgs))
	for _, arg := range trackArgs {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid track ID %q", arg)
		}
		track, err := client.GetTrack(ctx, id)
		if err != nil {
			return fmt.Errorf("%s", errmsg.Format(errmsg.OpTrackFetch, err))
		}
		tracks = append(tracks, *track)
	}
	store.PlayQueue(tracks, 0)
	return nil
}
