// Package cli implements the gorepo command line interface.
package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/Alp4ka/gorepo"
	"github.com/Alp4ka/gorepo/gormprom"
	"github.com/Alp4ka/gorepo/internal/config"
	"github.com/Alp4ka/gorepo/internal/database"
	"github.com/Alp4ka/gorepo/internal/logging"
	"github.com/Alp4ka/gorepo/internal/people"
)

// app is the state shared by subcommands. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	persons  *gorepo.Repository[people.Person, int, *people.Person]
}

// NewRootCmd creates the root Cobra command for the gorepo CLI.
func NewRootCmd(ver string) *cobra.Command {
	a := new(app)

	cmd := &cobra.Command{
		Use:           "gorepo",
		Short:         "Query and page through the people demo database",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "path to config file (default: ./gorepo.yaml)")
	cmd.PersistentFlags().String("log-level", "", "override logging.level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().Bool("metrics", false, "print database statement counters on exit")
	cmd.AddCommand(
		newSeedCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newRenameCmd(a),
		newDeleteCmd(a),
	)

	return cmd
}

const rootCmdExample = `  # Create the schema and insert 25 people
  gorepo seed --count 25

  # Second page of five, newest first, with addresses
  gorepo list --page 2 --size 5 --sort "id desc" --with-address

  # Everyone called Ma-something
  gorepo list --name-like "Ma%"

  # Fetch and delete a single person
  gorepo get 3
  gorepo delete 3`

func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.Logging, cmd.ErrOrStderr())
	a.registry = prometheus.NewRegistry()

	metrics, err := gormprom.NewMetrics("gorepo", a.registry)
	if err != nil {
		return err
	}

	db, err := database.Open(cmd.Context(), cfg.Database, a.logger, metrics)
	if err != nil {
		return err
	}

	// PersistentPostRunE does not run after a failed pre-run.
	if err = people.Migrate(cmd.Context(), db); err != nil {
		_ = database.Close(db)
		return err
	}

	persons, err := gorepo.NewRepository[people.Person, int](db, gorepo.WithMaxPageSize(cfg.Paging.MaxSize))
	if err != nil {
		_ = database.Close(db)
		return fmt.Errorf("failed to create person repository: %w", err)
	}

	a.db = db
	a.persons = persons

	return nil
}

func (a *app) teardown(cmd *cobra.Command) error {
	if a.db == nil {
		return nil
	}

	if printMetrics, _ := cmd.Flags().GetBool("metrics"); printMetrics {
		if err := a.printStatementCounts(cmd); err != nil {
			a.logger.Warn().Err(err).Msg("failed to gather metrics")
		}
	}

	err := database.Close(a.db)
	a.db = nil

	return err
}

// printStatementCounts writes "operation table count" lines for every
// statement counter collected during the command.
func (a *app) printStatementCounts(cmd *cobra.Command) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, family := range families {
		if family.GetName() != "gorepo_db_statements_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s\t%s\t%.0f", labels["operation"], labels["table"], metric.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)

	out := cmd.ErrOrStderr()
	for _, line := range lines {
		if _, err = fmt.Fprintln(out, line); err != nil {
			return err
		}
	}

	return nil
}

// describe turns repository errors into messages fit for a terminal.
func describe(err error) error {
	var exprErr *gorepo.ExpressionError
	switch {
	case errors.As(err, &exprErr):
		if exprErr.Closest != "" {
			return fmt.Errorf("unknown %s '%s', did you mean '%s'?", exprErr.Kind, exprErr.Name, exprErr.Closest)
		}
		return exprErr
	default:
		return err
	}
}
