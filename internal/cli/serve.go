package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/soyeahso/boardflow/internal/activity"
	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/config"
	"github.com/soyeahso/boardflow/internal/executor"
	"github.com/soyeahso/boardflow/internal/extract"
	"github.com/soyeahso/boardflow/internal/gateway"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/logging"
	"github.com/soyeahso/boardflow/internal/orchestrator"
	"github.com/soyeahso/boardflow/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Boardflow gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			// a .env in the working directory supplies keys in dev setups
			_ = godotenv.Load()

			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			// the config may ask for file output or a different level
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			lg, closeLog, err := logging.Configure(logging.Options{
				Level:        level,
				File:         cfg.Logging.File,
				ConsoleStyle: cfg.Logging.ConsoleStyle,
				ConsoleLevel: cfg.Logging.ConsoleLevel,
			})
			if err != nil {
				return err
			}
			defer closeLog()
			log = lg

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			deps, closeStores, err := buildDeps(cfg, log)
			if err != nil {
				return err
			}
			defer closeStores()

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := gateway.New(cfg, deps, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

// buildDeps assembles the gateway's collaborators from config. The
// returned close function releases storage resources.
func buildDeps(cfg config.Config, log *logging.Logger) (gateway.Deps, func(), error) {
	var (
		settings    store.SettingsStore
		files       store.KnowledgeStore
		activities  activity.Store
		transcripts orchestrator.TranscriptStore
		closeFn     = func() {}
	)

	switch cfg.Store.Driver {
	case "memory":
		mem := store.NewMemory(cfg.Activity.Retention)
		settings = store.MemorySettings{Memory: mem}
		files = store.MemoryKnowledge{Memory: mem}
		activities = store.MemoryActivity{Memory: mem}
		transcripts = store.MemoryTranscripts{Memory: mem}
		log.Info().Msg("using in-memory store")
	default:
		dbPath := paths.DatabasePath(cfg.Store)
		db, err := store.Open(dbPath, log)
		if err != nil {
			return gateway.Deps{}, nil, fmt.Errorf("opening database: %w", err)
		}
		closeFn = func() { db.Close() }
		settings = store.NewSettingsStore(db)
		files = store.NewKnowledgeStore(db)
		activities = store.NewActivityStore(db, cfg.Activity.Retention)
		transcripts = store.NewTranscriptStore(db)
		log.Info().Str("path", dbPath).Msg("using SQLite store")
	}

	var boards board.Client
	if cfg.Board.Token != "" {
		opts := []board.MondayOption{}
		if cfg.Board.Endpoint != "" {
			opts = append(opts, board.WithEndpoint(cfg.Board.Endpoint))
		}
		boards = board.NewMondayClient(cfg.Board.Token, opts...)
		log.Info().Msg("board API client configured")
	} else {
		log.Warn().Msg("no board API token configured, tool calls will be unavailable")
	}

	recorder := activity.NewRecorder(activities, boards, log)
	exec := executor.New(boards, recorder, log)
	orch := orchestrator.New(transcripts, exec, cfg.Knowledge.TopK, log)

	extractClient := llm.NewPoeClient(cfg.LLM.APIKey, llm.WithBaseURL(cfg.LLM.BaseURL))
	extractor := extract.New(extractClient, log,
		extract.WithMaxTokens(cfg.LLM.MaxTokens),
		extract.WithFetchTimeout(time.Duration(cfg.Board.DownloadTimeout)*time.Second))

	return gateway.Deps{
		Settings:  settings,
		Files:     files,
		Orch:      orch,
		Recorder:  recorder,
		Extractor: extractor,
		Boards:    boards,
	}, closeFn, nil
}
