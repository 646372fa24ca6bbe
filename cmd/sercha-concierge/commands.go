package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-concierge/internal/adapters/driven/kbfile"
	"github.com/custodia-labs/sercha-concierge/internal/adapters/driving/http"
	"github.com/custodia-labs/sercha-concierge/internal/config"
	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.Log)
	return cfg, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the index worker and the knowledge base watcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log.Printf("sercha-concierge %s starting (instance %s)", version, instanceID(cfg))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.worker.Start(ctx); err != nil {
				return fmt.Errorf("start index worker: %w", err)
			}
			defer a.worker.Stop()

			if stats, err := a.index.Rebuild(ctx); err != nil {
				log.Printf("Warning: initial index build failed: %v (answers will use the model only)", err)
			} else {
				log.Printf("Knowledge index built: %d chunks (%d cached, %d failed)", stats.Chunks, stats.CachedChunks, stats.FailedChunks)
			}

			if cfg.KnowledgeBase.Watch {
				watcher, err := kbfile.NewWatcher(kbfile.WatcherConfig{
					Path:       cfg.KnowledgeBase.Path,
					Trigger:    a.worker,
					InstanceID: a.instanceID,
					Logger:     a.logger,
				})
				if err != nil {
					log.Printf("Warning: knowledge base watcher disabled: %v", err)
				} else {
					defer watcher.Close()
					go watcher.Run(ctx)
					log.Printf("Watching %s for changes", cfg.KnowledgeBase.Path)
				}
			}

			serverCfg := http.DefaultConfig()
			serverCfg.Host = cfg.Server.Host
			serverCfg.Port = cfg.Server.Port
			serverCfg.AllowedOrigins = cfg.Server.AllowedOrigins
			serverCfg.Version = version
			serverCfg.Logger = a.logger

			server := http.NewServer(serverCfg, http.Dependencies{
				Answers:   a.answers,
				Index:     a.index,
				Rebuilder: a.worker,
				Caps:      a.services,
				Feedback:  a.feedback,
				Backends:  a.backends(),
			})

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				_ = server.Stop(shutdownCtx)
			}()

			return server.Start()
		},
	}
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Answer a single message from the command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.index.Rebuild(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "warning: index build failed: %v\n", err)
			}

			conversationID, _ := cmd.Flags().GetString("conversation-id")
			audioOut, _ := cmd.Flags().GetString("audio-out")
			historyFile, _ := cmd.Flags().GetString("history")

			req := &domain.AnswerRequest{
				Message:        args[0],
				ConversationID: conversationID,
				Voice:          audioOut != "",
			}
			if historyFile != "" {
				data, err := os.ReadFile(historyFile)
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				if err := json.Unmarshal(data, &req.History); err != nil {
					return fmt.Errorf("parse history: %w", err)
				}
			}

			env, answerErr := a.answers.Answer(ctx, req)
			if env == nil {
				return answerErr
			}

			fmt.Printf("[%s] %s\n", env.SourceKind(), env.Answer)
			if ref := env.ProvenanceRef(); ref != "" {
				fmt.Printf("provenance: %s\n", ref)
			}
			if env.Audio != nil && audioOut != "" {
				if err := os.WriteFile(audioOut, env.Audio.Bytes, 0644); err != nil {
					return fmt.Errorf("write audio: %w", err)
				}
				fmt.Printf("audio: %s (%s)\n", audioOut, env.Audio.MimeType)
			}
			return answerErr
		},
	}
	cmd.Flags().String("conversation-id", "", "Conversation ID for server-side history")
	cmd.Flags().String("history", "", "JSON file with prior conversation turns")
	cmd.Flags().String("audio-out", "", "Write synthesized speech to this file")
	return cmd
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the knowledge index and notify running instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.worker.RebuildNow(ctx, domain.RebuildReasonCLI)
			if err != nil {
				return fmt.Errorf("rebuild: %w", err)
			}

			out, _ := json.MarshalIndent(stats, "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
