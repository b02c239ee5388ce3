package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/champtrack/champtrack-hub/internal/application/outbox"
	"github.com/champtrack/champtrack-hub/internal/application/store"
	"github.com/champtrack/champtrack-hub/internal/application/syncer"
	"github.com/champtrack/champtrack-hub/internal/infrastructure/persistence"
	"github.com/champtrack/champtrack-hub/internal/interface/cli/presenter"
	"github.com/champtrack/champtrack-hub/pkg/logger"
)

const upcomingLimit = 10

var (
	conflictDays int
	familyFlag   string

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Seed the demo family in memory and print the overview",
		Args:  cobra.NoArgs,
		RunE:  runDemo,
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Write the demo family to the configured backend",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}

	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Load a family from the backend and print it",
		Args:  cobra.NoArgs,
		RunE:  runSnapshot,
	}
)

func runDemo(cmd *cobra.Command, _ []string) error {
	st := store.New(append(store.ConfigOptions(cfg), store.WithLogger(log))...)
	st.SeedDemo()
	return printFamily(cmd, st)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	backend, err := persistence.Open(ctx, cfg, true, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	ob := outbox.New(backend.Store, append(outbox.ConfigOptions(cfg.Outbox), outbox.WithLogger(log))...)
	st := store.New(append(store.ConfigOptions(cfg), store.WithPersister(ob), store.WithLogger(log))...)
	demo := st.SeedDemo()
	ob.Close()

	if err := ob.Flush(ctx); err != nil {
		return err
	}
	if dead := ob.DeadLetters(); len(dead) > 0 {
		return fmt.Errorf("%d of the demo writes failed, last: %s", len(dead), ob.LastError())
	}

	log.Info("demo family written", logger.FamilyID(demo.FamilyID), logger.String("backend", backend.Name))
	fmt.Fprintln(cmd.OutOrStdout(), demo.FamilyID)
	return nil
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	familyID := familyFlag
	if familyID == "" {
		familyID = cfg.Sync.FamilyID
	}
	if familyID == "" {
		return errors.New("--family or SYNC_FAMILY_ID is required")
	}

	backend, err := persistence.Open(ctx, cfg, false, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	st := store.New(append(store.ConfigOptions(cfg), store.WithLogger(log))...)
	snap, err := syncer.Load(ctx, backend.Store, st, familyID)
	if err != nil {
		return err
	}

	counts := presenter.CountSnapshot(snap)
	if backend.Postgres != nil {
		// Raw row counts also show documents that failed to decode.
		if counts, err = backend.Postgres.Count(ctx, familyID); err != nil {
			return err
		}
	}
	if err := newPresenter().RenderCounts(cmd.OutOrStdout(), familyID, counts); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return printFamily(cmd, st)
}

func printFamily(cmd *cobra.Command, st *store.Store) error {
	view, ok := presenter.BuildFamilyView(st, time.Now(), cfg.App.Location, conflictDays, upcomingLimit)
	if !ok {
		return errors.New("no family loaded")
	}
	return newPresenter().RenderFamily(cmd.OutOrStdout(), view)
}
