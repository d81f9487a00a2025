package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pausemo/api/internal/model"
	"github.com/pausemo/api/internal/repository"
	"github.com/pausemo/api/internal/service"
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Retire or restore cards",
}

var cardRetireCmd = &cobra.Command{
	Use:   "retire CARD_ID...",
	Short: "Stop selecting the given cards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetCardActive(cmd, args, false)
	},
}

var cardRestoreCmd = &cobra.Command{
	Use:   "restore CARD_ID...",
	Short: "Make retired cards selectable again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetCardActive(cmd, args, true)
	},
}

type cardActivator interface {
	SetCardActive(ctx context.Context, cardID string, active bool) (*model.Card, error)
}

func runSetCardActive(cmd *cobra.Command, ids []string, active bool) error {
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

	topics := service.NewTopicService(service.TopicServiceConfig{
		TopicRepo: repository.NewTopicRepository(db),
		CardRepo:  repository.NewCardRepository(db),
		Logger:    log,
	})
	return setCardsActive(ctx, cmd, topics, ids, active)
}

// setCardsActive applies the change to every card and reports failures together
func setCardsActive(ctx context.Context, cmd *cobra.Command, activator cardActivator, ids []string, active bool) error {
	w := cmd.OutOrStdout()
	state := "retired"
	if active {
		state = "active"
	}

	var errs []error
	for _, id := range ids {
		card, err := activator.SetCardActive(ctx, id, active)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			fmt.Fprintf(w, "%-32s failed: %v\n", id, err)
			continue
		}
		fmt.Fprintf(w, "%-32s %s (%s, %s)\n", card.ID, state, card.TopicID, card.Phase)
	}
	return errors.Join(errs...)
}
