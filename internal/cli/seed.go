package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/gorepo/internal/people"
)

func newSeedCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert deterministic demo people",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 0 {
				return fmt.Errorf("count must be >= 0, got %d", count)
			}

			if err := people.Seed(cmd.Context(), a.db, count); err != nil {
				return err
			}

			a.logger.Info().Int("count", count).Msg("seeded people")
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of people to insert")

	return cmd
}
