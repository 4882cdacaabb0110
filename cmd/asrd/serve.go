package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"asrd/internal/audio"
	"asrd/internal/bootstrap"
	"asrd/internal/common/fsutil"
	"asrd/internal/httpapi"
	"asrd/internal/manager"
	"asrd/internal/transcribe"
	"asrd/internal/whisper"
)

const shutdownTimeout = 10 * time.Second

// errStartup marks a startup failure already reported through the logger.
var errStartup = errors.New("startup dependency check failed")

// components is the wired object graph shared by serve and check.
type components struct {
	loader  *whisper.Loader
	manager *manager.Manager
	decoder *audio.FFmpeg
	service *transcribe.Service
}

func (c *cli) build() (*components, error) {
	cfg := c.cfg
	tempDir, err := fsutil.ExpandHome(cfg.TempDir)
	if err != nil {
		return nil, err
	}
	loader := &whisper.Loader{
		RuntimeBin:   cfg.RuntimeBin,
		ModelDir:     cfg.ModelDir,
		AutoDownload: cfg.AutoDownload,
		Threads:      cfg.Threads,
		Language:     cfg.Language,
		OutDir:       tempDir,
		Logger:       c.log.With().Str("component", "whisper").Logger(),
	}
	mgr := manager.NewWithConfig(manager.ManagerConfig{
		ModelName:        cfg.Model,
		Loader:           loader,
		DevicePreference: cfg.Device,
		MaxQueueDepth:    cfg.MaxQueueDepth,
		MaxWait:          cfg.MaxWait(),
		Logger:           &c.log,
	})
	decoder := audio.NewFFmpeg(
		audio.WithFFmpegBinary(cfg.FFmpegBin),
		audio.WithCommandTimeout(cfg.CommandTimeout()),
	)
	svc := transcribe.NewService(mgr, decoder, transcribe.Options{
		TempDir:              tempDir,
		MaxUploadBytes:       cfg.MaxUploadBytes,
		InferTimeout:         cfg.InferTimeout(),
		SkipSilence:          cfg.SkipSilence,
		SilenceThresholdDBFS: cfg.SilenceThresholdDBFS,
		Logger:               &c.log,
	})
	return &components{loader: loader, manager: mgr, decoder: decoder, service: svc}, nil
}

func (c *cli) checkStartup() error {
	_, missing := bootstrap.Check([]bootstrap.Requirement{bootstrap.FFmpegRequirement(c.cfg.FFmpegBin)}, exec.LookPath)
	for _, m := range missing {
		c.log.Error().Str("capability", m.Name).Str("binary", m.Binary).Str("remediation", m.Remediation).Err(m.Err).Msg(m.Error())
	}
	if len(missing) > 0 {
		return errStartup
	}
	return nil
}

func (c *cli) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	log := c.log.With().Str("component", "main").Logger()
	if err := c.checkStartup(); err != nil {
		return err
	}
	comp, err := c.build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpapi.SetLogger(c.log.With().Str("component", "http").Logger())
	httpapi.SetRequestLogLevel(c.cfg.LogLevel)
	httpapi.SetCORSOptions(len(c.cfg.CORSOrigins) > 0, c.cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxUploadBytes(c.cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           httpapi.NewMux(httpapi.Backend{Manager: comp.manager, Service: comp.service}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", c.cfg.Addr).Str("model", c.cfg.Model).Str("version", versionString()).Msg("asrd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown error")
		}
		return nil
	})

	err = g.Wait()
	if cerr := comp.manager.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("close model")
	}
	return err
}
