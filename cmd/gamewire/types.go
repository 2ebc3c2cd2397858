package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/gamewire/internal/errors"
	"github.com/vango-dev/gamewire/pkg/gametype"
)

func (c *cli) typesCmd() *cobra.Command {
	var (
		asJSON   bool
		category string
	)

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the game type table",
		Long: `List the game type codes of the configured protocol version.

Each line shows the category code, the flat code and the name. Two peers
agree on every code when their fingerprints match.

Examples:
  gamewire types
  gamewire types --category=role
  gamewire types --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTypes(asJSON, gametype.Category(category))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the table as JSON")
	cmd.Flags().StringVar(&category, "category", "", "Only list one category")

	return cmd
}

func (c *cli) runTypes(asJSON bool, only gametype.Category) error {
	if _, err := c.codec(); err != nil {
		return err
	}
	types := c.types
	if only != "" {
		if _, ok := types.Category(only); !ok {
			return errors.New("W100").
				WithDetail(fmt.Sprintf("unknown category %q", only)).
				WithSuggestion(fmt.Sprintf("Use one of %v", types.Categories()))
		}
	}

	if asJSON {
		d := types.Describe()
		if only != "" {
			for _, cd := range d.Categories {
				if cd.Name == only {
					d.Categories = []gametype.CategoryDescription{cd}
					break
				}
			}
		}
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	fmt.Fprintf(c.stdout, "version %d  fingerprint %016x  flat width %d bits\n\n",
		types.Version(), types.Fingerprint(), types.All().Bits())

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCODE\tFLAT\tNAME")
	for _, cat := range types.Categories() {
		if only != "" && cat != only {
			continue
		}
		reg, _ := types.Category(cat)
		for code, name := range reg.Names() {
			if code == 0 {
				continue
			}
			flat, _ := types.All().Encode(name)
			fmt.Fprintf(tw, "%s/%d\t%d\t%d\t%s\n", cat, reg.Bits(), code, flat, name)
		}
	}
	return tw.Flush()
}
