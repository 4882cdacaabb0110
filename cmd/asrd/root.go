package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"asrd/internal/config"
	"asrd/internal/logging"
)

// cli holds flag targets shared by all subcommands.
type cli struct {
	configPath string
	envFile    string
	flags      config.Config
	cors       string

	cfg config.Config
	log zerolog.Logger
	out io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{flags: config.Default(), out: os.Stdout}

	root := &cobra.Command{
		Use:           "asrd",
		Short:         "Local speech-to-text HTTP service",
		Long:          "asrd accepts audio uploads on POST /transcribe and returns transcripts produced by a local whisper.cpp model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.resolve(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
	root.SetOut(c.out)

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&c.envFile, "env-file", ".env", "Dotenv file loaded into the environment when present")
	pf.StringVar(&c.flags.Addr, "addr", c.flags.Addr, "HTTP listen address")
	pf.StringVar(&c.flags.Model, "model", c.flags.Model, "Model name (see `asrd models`) or path to a ggml file")
	pf.StringVar(&c.flags.ModelDir, "model-dir", c.flags.ModelDir, "Directory holding downloaded model files")
	pf.BoolVar(&c.flags.AutoDownload, "auto-download", c.flags.AutoDownload, "Download missing model weights on first load")
	pf.StringVar(&c.flags.RuntimeBin, "runtime-bin", c.flags.RuntimeBin, "whisper.cpp executable (default: whisper-cli on PATH)")
	pf.StringVar(&c.flags.Device, "device", c.flags.Device, "Compute device: auto|accelerator|cpu")
	pf.IntVar(&c.flags.Threads, "threads", c.flags.Threads, "Inference threads (0 = runtime default)")
	pf.StringVar(&c.flags.Language, "language", c.flags.Language, "Spoken language code or auto")
	pf.StringVar(&c.flags.FFmpegBin, "ffmpeg", c.flags.FFmpegBin, "ffmpeg executable")
	pf.StringVar(&c.flags.TempDir, "temp-dir", c.flags.TempDir, "Directory for per-request WAV files (default: OS temp dir)")
	pf.Int64Var(&c.flags.MaxUploadBytes, "max-upload-bytes", c.flags.MaxUploadBytes, "Upload size limit in bytes (0 = unlimited)")
	pf.IntVar(&c.flags.MaxQueueDepth, "max-queue-depth", c.flags.MaxQueueDepth, "Requests allowed to wait for the model")
	pf.IntVar(&c.flags.MaxWaitSeconds, "max-wait-seconds", c.flags.MaxWaitSeconds, "Longest wait for the model before answering too busy")
	pf.IntVar(&c.flags.InferTimeoutSeconds, "infer-timeout-seconds", c.flags.InferTimeoutSeconds, "Per-request inference timeout (0 = none)")
	pf.BoolVar(&c.flags.SkipSilence, "skip-silence", c.flags.SkipSilence, "Return an empty transcript for silent uploads without running the model")
	pf.StringVar(&c.flags.LogLevel, "log-level", c.flags.LogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&c.flags.LogFormat, "log-format", c.flags.LogFormat, "Log format: console|json")
	pf.StringVar(&c.cors, "cors-origins", "", "Comma-separated CORS origins (empty disables CORS)")

	root.AddCommand(newCheckCmd(c), newModelsCmd(c), newVersionCmd())
	return root
}

// resolve builds the effective configuration: defaults < file < .env and
// ASRD_* environment < flags set on the command line.
func (c *cli) resolve(fs *pflag.FlagSet) error {
	if _, err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}
	cfg, err := config.Resolve(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(fs, &cfg, c.flags, c.cors)
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config, f config.Config, cors string) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("addr", func() { cfg.Addr = f.Addr })
	set("model", func() { cfg.Model = f.Model })
	set("model-dir", func() { cfg.ModelDir = f.ModelDir })
	set("auto-download", func() { cfg.AutoDownload = f.AutoDownload })
	set("runtime-bin", func() { cfg.RuntimeBin = f.RuntimeBin })
	set("device", func() { cfg.Device = f.Device })
	set("threads", func() { cfg.Threads = f.Threads })
	set("language", func() { cfg.Language = f.Language })
	set("ffmpeg", func() { cfg.FFmpegBin = f.FFmpegBin })
	set("temp-dir", func() { cfg.TempDir = f.TempDir })
	set("max-upload-bytes", func() { cfg.MaxUploadBytes = f.MaxUploadBytes })
	set("max-queue-depth", func() { cfg.MaxQueueDepth = f.MaxQueueDepth })
	set("max-wait-seconds", func() { cfg.MaxWaitSeconds = f.MaxWaitSeconds })
	set("infer-timeout-seconds", func() { cfg.InferTimeoutSeconds = f.InferTimeoutSeconds })
	set("skip-silence", func() { cfg.SkipSilence = f.SkipSilence })
	set("log-level", func() { cfg.LogLevel = f.LogLevel })
	set("log-format", func() { cfg.LogFormat = f.LogFormat })
	set("cors-origins", func() { cfg.CORSOrigins = splitCSV(cors) })
}

// splitCSV splits a comma-separated list, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func versionString() string {
	if Commit == "" {
		return Version
	}
	return Version + " (" + Commit + ")"
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "asrd %s\n", versionString())
			return nil
		},
	}
}
