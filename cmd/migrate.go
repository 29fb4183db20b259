package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/veriface/veriface/internal/config"
	"github.com/veriface/veriface/internal/store/file"
	"github.com/veriface/veriface/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a local JSON snapshot into PostgreSQL",
	Long: `Read a local JSON enrollment snapshot (the file-store format) and
insert every (name, embedding) pair into the PostgreSQL store. Existing rows
are kept; the snapshot rows are appended.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("file", "face_database.json", "Path to the JSON snapshot file")
	migrateCmd.Flags().Bool("dry-run", false, "Parse the snapshot and report counts without writing")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	path := mustGetString(cmd, "file")
	dryRun := mustGetBool(cmd, "dry-run")

	ctx := context.Background()

	// The snapshot file uses the file-store format, so the file store
	// itself is the reader.
	enrollments, err := file.New(path).LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	if len(enrollments) == 0 {
		fmt.Println("Snapshot is empty, nothing to migrate")
		return nil
	}

	names := make(map[string]struct{})
	for _, e := range enrollments {
		names[e.Name] = struct{}{}
	}
	fmt.Printf("Snapshot contains %d embeddings across %d identities\n", len(enrollments), len(names))

	if dryRun {
		fmt.Println("Dry run, no rows written")
		return nil
	}

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	if err := pool.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	faceStore := postgres.NewFaceStore(pool)

	bar := progressbar.NewOptions(len(enrollments),
		progressbar.OptionSetDescription("Migrating enrollments"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rows"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	succeeded := 0
	failed := 0
	for _, e := range enrollments {
		if err := faceStore.Append(ctx, e.Name, e.Embedding); err != nil {
			failed++
			fmt.Printf("\nWarning: failed to insert row for %s: %v\n", e.Name, err)
		} else {
			succeeded++
		}
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Migration finished: %d inserted, %d failed\n", succeeded, failed)
	if failed > 0 {
		return fmt.Errorf("%d rows failed to migrate", failed)
	}
	return nil
}
