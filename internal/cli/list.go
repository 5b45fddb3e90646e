package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Alp4ka/gorepo"
	"github.com/Alp4ka/gorepo/internal/people"
)

type listParams struct {
	raw         gorepo.RawPageRequest
	nameLike    string
	surname     string
	withAddress bool
	all         bool
}

func newListCmd(a *app) *cobra.Command {
	var params listParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print a page of people as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("size") {
				params.raw.PageSize = a.cfg.Paging.DefaultSize
			}

			page, opts, err := params.queryOptions()
			if err != nil {
				return describe(err)
			}

			result, err := a.persons.GetAllPaged(cmd.Context(), page.Index, page.Size, opts...)
			if err != nil {
				return describe(err)
			}

			a.logger.Debug().
				Int64("total", result.TotalItems).
				Int("page", result.CurrentPage).
				Int("pages", result.TotalPages).
				Msg("listed people")

			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().IntVar(&params.raw.PageIndex, "page", 1, "1-based page index")
	cmd.Flags().IntVar(&params.raw.PageSize, "size", 0, "page size (default: paging.default_size)")
	cmd.Flags().StringSliceVar(&params.raw.Sort, "sort", nil, `ordering such as "name asc" or "id desc"; repeatable`)
	cmd.Flags().StringVar(&params.nameLike, "name-like", "", "LIKE pattern matched against the name")
	cmd.Flags().StringVar(&params.surname, "surname", "", "exact surname")
	cmd.Flags().BoolVar(&params.withAddress, "with-address", false, "load each person's address")
	cmd.Flags().BoolVar(&params.all, "all", false, "return every match as a single page")

	return cmd
}

// queryOptions turns the flags into a page request and composer options.
func (p listParams) queryOptions() (gorepo.PageRequest, []gorepo.QueryOption, error) {
	page, orderings, err := p.raw.Decode(people.SortColumns)
	if err != nil {
		return gorepo.PageRequest{}, nil, err
	}
	if p.all {
		page = gorepo.PageRequest{}
	}

	opts := []gorepo.QueryOption{gorepo.WithOrderBy(orderings...)}
	if p.withAddress {
		opts = append(opts, gorepo.WithIncludes(gorepo.Preload("Address")))
	}

	var conditions []gorepo.Condition
	if p.nameLike != "" {
		conditions = append(conditions, gorepo.Where("name", gorepo.OperatorLike, p.nameLike))
	}
	if p.surname != "" {
		conditions = append(conditions, gorepo.Eq("surname", p.surname))
	}
	if len(conditions) > 0 {
		opts = append(opts, gorepo.WithFilter(gorepo.Match(conditions...)))
	}

	return page, opts, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
