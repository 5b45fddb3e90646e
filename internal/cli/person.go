package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/gorepo"
)

// ErrPersonNotFound is returned when the requested person does not exist.
var ErrPersonNotFound = errors.New("person not found")

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid person id %q", arg)
	}

	return id, nil
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Print a single person as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			person, err := a.persons.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("%w: id=%d", ErrPersonNotFound, id)
			}

			return writeJSON(cmd, person)
		},
	}
}

func newRenameCmd(a *app) *cobra.Command {
	var name, surname string

	cmd := &cobra.Command{
		Use:   "rename ID",
		Short: "Change a person's name or surname",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if name == "" && surname == "" {
				return errors.New("at least one of --name or --surname is required")
			}

			person, err := a.persons.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if person == nil {
				return fmt.Errorf("%w: id=%d", ErrPersonNotFound, id)
			}

			if name != "" {
				person.Name = name
			}
			if surname != "" {
				person.Surname = surname
			}

			if err = a.persons.Update(cmd.Context(), person); err != nil {
				if errors.Is(err, gorepo.ErrPersistenceConflict) {
					return fmt.Errorf("%w: id=%d was removed concurrently", ErrPersonNotFound, id)
				}
				return err
			}

			return writeJSON(cmd, person)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&surname, "surname", "", "new surname")

	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a person by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err = a.persons.DeleteByID(cmd.Context(), id); err != nil {
				if errors.Is(err, gorepo.ErrPersistenceConflict) {
					return fmt.Errorf("%w: id=%d", ErrPersonNotFound, id)
				}
				return err
			}

			a.logger.Info().Int("id", id).Msg("deleted person")
			return nil
		},
	}
}
