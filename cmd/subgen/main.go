// Command subgen is a thin wiring shim: load config, build an LLM client
// and recognizer via their factories, and hand off to the pipeline
// engine. Full flag parsing belongs to the outer CLI layer; this binary
// only covers the positional run form and the component subcommands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/lsilvatti/subgen/internal/components"
	"github.com/lsilvatti/subgen/internal/config"
	"github.com/lsilvatti/subgen/internal/llm"
	"github.com/lsilvatti/subgen/internal/pipeline"
	"github.com/lsilvatti/subgen/internal/subgenerr"
	"github.com/lsilvatti/subgen/internal/transcribe"
	"github.com/lsilvatti/subgen/pkg/utils"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("SubGen %s\n", utils.Version)
		return
	}

	utils.SafeRun(run)
}

func run() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "install", "uninstall", "doctor":
			runComponentCommand(logger, os.Args[1], os.Args[2:])
			return
		}
	}

	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: subgen <input-video-or-audio> <target-lang>")
		os.Exit(2)
	}
	inputPath := os.Args[1]
	targetLang := os.Args[2]

	cfgPath, err := config.Path()
	if err != nil {
		fail(logger, err, "failed to resolve config path")
	}

	var cfg config.Config
	if config.Exists(cfgPath) {
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fail(logger, err, "failed to load config")
		}
	} else {
		cfg = config.Default()
	}

	dataRoot, err := config.DataRoot()
	if err != nil {
		fail(logger, err, "failed to resolve data root")
	}

	mgr, err := components.NewManager(dataRoot)
	if err != nil {
		fail(logger, err, "failed to initialize component manager")
	}

	llmClient, err := (llm.Factory{}).Create(cfg.Translation)
	if err != nil {
		fail(logger, err, "failed to build LLM client")
	}

	recognizer, err := buildRecognizer(cfg, mgr)
	if err != nil {
		fail(logger, err, "failed to build recognizer")
	}

	engine := &pipeline.Engine{
		Recognizer: recognizer,
		LLMClient:  llmClient,
		Components: mgr,
		Config:     cfg,
		Logger:     logger,
	}

	opts := config.RunOptions{ToLang: targetLang, Proofread: true}

	ctx := context.Background()
	proj, err := engine.Run(ctx, inputPath, opts, func(stage pipeline.Stage, current, total int) {
		logger.Info().Str("stage", string(stage)).Int("current", current).Int("total", total).Msg("progress")
	})
	if err != nil {
		fail(logger, err, "pipeline run failed")
	}

	outPath := inputPath + "." + targetLang + "." + cfg.Output.Format
	if _, err := engine.Export(proj, outPath, cfg.Output.Format, nil); err != nil {
		fail(logger, err, "export failed")
	}

	logger.Info().Str("output", outPath).Msg("done")
}

// exitCode maps a pipeline-originated error to this binary's documented
// exit codes (0 success is never returned from here; 1 is the fallback
// for every error category without a dedicated code).
func exitCode(err error) int {
	var sErr *subgenerr.Error
	if !errors.As(err, &sErr) {
		return 1
	}
	switch sErr.Kind() {
	case subgenerr.KindBadInput:
		return 2
	case subgenerr.KindBadConfig:
		return 3
	case subgenerr.KindMissingComponent:
		return 4
	case subgenerr.KindCredential:
		return 5
	case subgenerr.KindCancelled:
		return 6
	default:
		return 1
	}
}

// fail logs err with its remediation hint and exits with the code
// assigned to its Kind, rather than always exiting 1 the way zerolog's
// Fatal does.
func fail(logger zerolog.Logger, err error, msg string) {
	event := logger.Error().Err(err)
	var sErr *subgenerr.Error
	if errors.As(err, &sErr) && sErr.Remedy != "" {
		event = event.Str("remedy", sErr.Remedy)
	}
	event.Msg(msg)
	os.Exit(exitCode(err))
}

// runComponentCommand handles the component-management subcommands:
// `install <component>`, `uninstall <component>`, and `doctor`.
func runComponentCommand(logger zerolog.Logger, cmd string, args []string) {
	dataRoot, err := config.DataRoot()
	if err != nil {
		fail(logger, err, "failed to resolve data root")
	}
	mgr, err := components.NewManager(dataRoot)
	if err != nil {
		fail(logger, err, "failed to initialize component manager")
	}

	switch cmd {
	case "install":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: subgen install <component>")
			os.Exit(2)
		}
		path, err := mgr.Install(context.Background(), args[0], func(downloaded, total int64) {
			logger.Info().Int64("downloaded", downloaded).Int64("total", total).Msg("downloading")
		})
		if err != nil {
			fail(logger, err, "install failed")
		}
		logger.Info().Str("component", args[0]).Str("path", path).Msg("installed")

	case "uninstall":
		if len(args) < 1 {
			fmt.Fprintln(os.Stderr, "usage: subgen uninstall <component>")
			os.Exit(2)
		}
		if err := mgr.Uninstall(args[0]); err != nil {
			fail(logger, err, "uninstall failed")
		}
		logger.Info().Str("component", args[0]).Msg("uninstalled")

	case "doctor":
		installed, err := mgr.ListInstalled()
		if err != nil {
			fail(logger, err, "could not read installed state")
		}
		for _, desc := range mgr.ListAvailable() {
			if rec, ok := installed[desc.ID]; ok {
				logger.Info().Str("component", desc.ID).Str("version", rec.Version).Str("path", rec.AbsolutePath).Msg("installed")
			} else {
				logger.Warn().Str("component", desc.ID).Str("remedy", "subgen install "+desc.ID).Msg("not installed")
			}
		}
	}
}

func buildRecognizer(cfg config.Config, mgr *components.Manager) (transcribe.Recognizer, error) {
	switch cfg.Whisper.Provider {
	case "cpp-binary":
		binPath := cfg.Whisper.BinaryPath
		if binPath == "" {
			path, err := mgr.FindWhisperEngine()
			if err != nil {
				return nil, err
			}
			binPath = path
		}
		return transcribe.NewBinaryAdapter(binPath), nil
	default:
		return transcribe.NewCloudAdapter(cfg.Whisper.BaseURL, cfg.Whisper.APIKey), nil
	}
}
