package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	clinicService "github.com/jwalitptl/clinic-api/internal/service/clinic"
	"github.com/jwalitptl/clinic-api/internal/service/identifier"
	"github.com/jwalitptl/clinic-api/internal/service/publication"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr}), nil
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import clinics from a JSON document or array of documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keepGoing, _ := cmd.Flags().GetBool("continue-on-error")

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			docs, err := decodeImportFile(raw)
			if err != nil {
				return err
			}

			cfg, appLogger, err := load()
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			base := postgres.NewBaseRepository(db)
			clinicRepo := postgres.NewClinicRepository(base)
			categoryRepo := postgres.NewCategoryRepository(base)
			hoursRepo := postgres.NewHoursRepository(base)
			resolver := identifier.NewResolver(categoryRepo, cfg.Cache.CategoryTTL, cfg.Cache.CleanupInterval, appLogger, nil)
			committer := publication.NewCommitter(publication.Repositories{
				Clinics:    clinicRepo,
				Categories: categoryRepo,
				Catalog:    postgres.NewCatalogRepository(base),
				Media:      postgres.NewMediaRepository(base),
				Hours:      hoursRepo,
			}, resolver, appLogger, nil)
			svc := clinicService.NewService(clinicRepo, hoursRepo, committer, validator.New(), appLogger)

			return runImport(cmd.Context(), svc, docs, keepGoing, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Bool("continue-on-error", false, "Keep importing after a document fails")
	return cmd
}

type importer interface {
	Import(ctx context.Context, req *model.ClinicImportRequest) (*model.CommitResult, error)
}

func runImport(ctx context.Context, svc importer, docs []*model.ClinicImportRequest, keepGoing bool, out io.Writer) error {
	failed := 0
	for i, doc := range docs {
		result, err := svc.Import(ctx, doc)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%d\t%s\terror: %v\n", i, doc.Name, err)
			if !keepGoing {
				return fmt.Errorf("import stopped at document %d: %w", i, err)
			}
			continue
		}
		fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", i, doc.Name, result.ClinicID, result.Slug)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(docs))
	}
	return nil
}

// decodeImportFile accepts one document or an array of documents. Unknown
// fields are rejected the same way the HTTP import does.
func decodeImportFile(raw []byte) ([]*model.ClinicImportRequest, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("import file is empty")
	}

	var items []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("invalid import file: %w", err)
		}
	} else {
		items = []json.RawMessage{raw}
	}

	docs := make([]*model.ClinicImportRequest, 0, len(items))
	for i, item := range items {
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.DisallowUnknownFields()
		var doc model.ClinicImportRequest
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply SQL migrations in file name order",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
			if err != nil {
				return err
			}
			sort.Strings(files)

			cfg, appLogger, err := load()
			if err != nil {
				return err
			}
			db, err := postgres.NewDB(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			for _, f := range files {
				script, err := os.ReadFile(f)
				if err != nil {
					return err
				}
				if _, err := db.ExecContext(cmd.Context(), string(script)); err != nil {
					return fmt.Errorf("failed to apply %s: %w", filepath.Base(f), err)
				}
				appLogger.Info().Str("file", filepath.Base(f)).Msg("migration applied")
			}
			return nil
		},
	}
	cmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	return cmd
}

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print moderation events as they are published",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := load()
			if err != nil {
				return err
			}
			if cfg.Redis.URL == "" {
				return errors.New("REDIS_URL is required")
			}

			broker, err := redis.NewRedisBroker(redis.Config{
				URL:          cfg.Redis.URL,
				MaxRetries:   cfg.Redis.MaxRetries,
				RetryBackoff: cfg.Redis.RetryBackoff,
				PoolSize:     cfg.Redis.PoolSize,
			}, appLogger, nil)
			if err != nil {
				return err
			}
			defer broker.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			messages, err := broker.Subscribe(ctx, cfg.Redis.Channel)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for payload := range messages {
				var msg messaging.Message
				if err := json.Unmarshal(payload, &msg); err != nil {
					appLogger.Warn().Err(err).Msg("skipping malformed event")
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", msg.OccurredAt.Format(time.RFC3339), msg.Type, payloadJSON(msg.Payload))
			}
			return nil
		},
	}
}

func payloadJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development token for a clinic owner or an admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			clinic, _ := cmd.Flags().GetString("clinic")
			admin, _ := cmd.Flags().GetBool("admin")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			claims := auth.Claims{}
			switch {
			case admin:
				claims.Role = auth.RoleAdmin
			case clinic != "":
				if _, err := uuid.Parse(clinic); err != nil {
					return fmt.Errorf("invalid clinic id: %w", err)
				}
				claims.ClinicID = clinic
			default:
				return errors.New("one of --clinic or --admin is required")
			}

			cfg, _, err := load()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET is required")
			}
			claims.Issuer = cfg.JWT.Issuer

			tok, err := auth.SignToken(cfg.JWT.Secret, claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("clinic", "", "Clinic id for an owner token")
	cmd.Flags().Bool("admin", false, "Issue an admin token")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
