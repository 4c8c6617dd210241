package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"moneyglitch/internal/amqp"
)

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print transaction events from the AMQP queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			err = client.Consume(cmd.Context(), func(e *amqp.TransactionEvent) error {
				line := fmt.Sprintf("%s  %-20s  #%d  %s  %s %s",
					e.Timestamp.Format("15:04:05"), e.Type, e.TransactionID, e.Date, e.Amount, e.Category)
				if e.NextDueDate != "" {
					line += mutedStyle.Render("  next " + e.NextDueDate)
				}
				_, err := fmt.Fprintln(out, line)
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
