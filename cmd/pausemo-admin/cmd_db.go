package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/lock"
	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/repository"
	"github.com/pausemo/api/internal/service"
	"github.com/pausemo/api/migrations"
)

var recomputeAll bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate the card catalog and print card counts per category",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SurrealQL migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed TOPIC_ID",
	Short: "Copy the catalog cards for a topic's category into the topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute [CARD_ID...]",
	Short: "Recompute card effectiveness from response history",
	RunE:  runRecompute,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "catalog version %d\n", catalog.Version())
	for _, name := range categoryNames() {
		cards := catalog.CardsFor(model.Category(name))
		counts := map[model.Phase]int{}
		for _, c := range cards {
			counts[c.Phase]++
		}
		fmt.Fprintf(w, "  %-28s %3d cards (observation %d, gap %d, reinforcement %d)\n",
			name, len(cards),
			counts[model.PhaseObservation], counts[model.PhaseGap], counts[model.PhaseReinforcement])
	}
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, _, err := connect(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	n, err := database.Migrate(ctx, db, migrations.Files, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	db, _, err := connect(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	topicRepo := repository.NewTopicRepository(db)
	topic, err := topicRepo.GetByID(ctx, args[0])
	if err != nil {
		return err
	}
	if topic == nil {
		return service.ErrTopicNotFound
	}

	topics := service.NewTopicService(service.TopicServiceConfig{
		TopicRepo: topicRepo,
		CardRepo:  repository.NewCardRepository(db),
		Catalog:   catalog,
		Logger:    log,
	})
	n, err := topics.SeedCards(ctx, topic)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d card(s) into %s (%s)\n", n, topic.ID, topic.Category)
	return nil
}

func runRecompute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !recomputeAll {
		return errors.New("pass one or more card ids, or --all")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, _, err := connect(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	cardRepo := repository.NewCardRepository(db)
	ids := args
	if recomputeAll {
		ids, err = cardRepo.ListIDs(ctx)
		if err != nil {
			return err
		}
	}

	efficiency := service.NewEfficiencyService(service.EfficiencyServiceConfig{
		CardRepo:         cardRepo,
		ResponseRepo:     repository.NewResponseRepository(db),
		PresentationRepo: repository.NewPresentationRepository(db),
		Locker:           lock.NewMemoryLocker(),
		Logger:           log,
	})
	return recompute(ctx, cmd, efficiency, ids)
}

// recompute runs every card and reports failures together
func recompute(ctx context.Context, cmd *cobra.Command, efficiency recomputer, ids []string) error {
	w := cmd.OutOrStdout()
	var errs []error
	for _, id := range ids {
		eff, err := efficiency.RecomputeEfficiency(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			fmt.Fprintf(w, "%-32s failed: %v\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%-32s responseRate=%.3f completionRate=%.3f\n", id, eff.ResponseRate, eff.CompletionRate)
	}
	fmt.Fprintf(w, "recomputed %d of %d card(s)\n", len(ids)-len(errs), len(ids))
	return errors.Join(errs...)
}

type recomputer interface {
	RecomputeEfficiency(ctx context.Context, cardID string) (*model.Effectiveness, error)
}
