package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/darkcaves/dragonites/pkg/convert"
	"github.com/darkcaves/dragonites/pkg/export"
	"github.com/darkcaves/dragonites/pkg/models"
	"github.com/darkcaves/dragonites/pkg/resolver"
)

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}

func typeNames(types []models.TypeTag) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	return strings.Join(names, "/")
}

func printCreatures(out io.Writer, recs []models.CreatureRecord) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPES\tHP\tATK\tDEF\tSPA\tSPD\tSPE\tTOTAL")
	for _, r := range recs {
		s := r.BaseStats
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, export.DisplayName(r.Name), typeNames(r.Types),
			s.HP, s.Attack, s.Defense, s.SpecialAttack, s.SpecialDefense, s.Speed, s.Total())
	}
	return w.Flush()
}

func newFetchCmd(configPath *string) *cobra.Command {
	var ttl string

	cmd := &cobra.Command{
		Use:   "fetch <id>",
		Short: "Fetch a creature, using the cache when fresh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			maxAge := a.resolver.TTL()
			if ttl != "" {
				if maxAge, err = parseDuration(ttl); err != nil {
					return err
				}
			}
			rec, err := a.resolver.Resolve(cmd.Context(), id, maxAge)
			if err != nil {
				return err
			}
			return printCreatures(os.Stdout, []models.CreatureRecord{rec})
		},
	}
	cmd.Flags().StringVar(&ttl, "ttl", "", "max cache age to accept (e.g. 1h); defaults to cache.ttl")
	return cmd
}

func newSearchCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search creatures by id or name fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			recs, err := a.resolver.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No creatures found.")
				return nil
			}
			return printCreatures(os.Stdout, recs)
		},
	}
}

func newListCmd(configPath *string) *cobra.Command {
	var q models.ListQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List creatures in id order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.resolver.List(cmd.Context(), q)
			if err != nil {
				return err
			}
			if len(res.Creatures) == 0 {
				fmt.Println("No creatures found.")
				return nil
			}
			if err := printCreatures(os.Stdout, res.Creatures); err != nil {
				return err
			}
			more := ""
			if res.HasMore {
				more = " (more available)"
			}
			fmt.Printf("\nShowing %d of %d%s\n", len(res.Creatures), res.TotalCount, more)
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Offset, "offset", 0, "rows to skip")
	cmd.Flags().IntVar(&q.Limit, "limit", 20, "page size")
	cmd.Flags().StringVar(&q.Type, "type", "", "filter by elemental type")
	cmd.Flags().StringVar(&q.Name, "name", "", "filter by name fragment")
	return cmd
}

func newConvertCmd(configPath *string) *cobra.Command {
	var (
		level  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "convert <id>",
		Short: "Convert a creature into a D&D 5e stat block",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if level > convert.MaxLevel {
				return resolver.ErrInvalidLevel
			}
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			block, err := a.resolver.ConvertByID(cmd.Context(), id, level)
			if err != nil {
				return err
			}
			out, err := export.Export(block, format)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&level, "level", 50, "creature level")
	cmd.Flags().StringVar(&format, "format", export.FormatText, "output format: json or text")
	return cmd
}
