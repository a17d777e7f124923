package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"labelclean/internal/engine"
	"labelclean/internal/logging"
	"labelclean/internal/taxonomy"
)

func newTaxonomyCommand(ctx *commandContext) *cobra.Command {
	taxonomyCmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Reference taxonomy utilities",
	}

	taxonomyCmd.AddCommand(newTaxonomyValidateCommand(ctx))

	return taxonomyCmd
}

func newTaxonomyValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the reference taxonomies and report entry counts and collisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			eng, err := engine.New(cfg, logging.NewNop())
			if err != nil {
				return err
			}

			counts := eng.Taxonomies().Counts()
			rows := make([][2]string, 0, len(taxonomy.Kinds))
			for _, kind := range taxonomy.Kinds {
				rows = append(rows, [2]string{string(kind), strconv.Itoa(counts[kind])})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reference directory: %s\n", cfg.Paths.ReferenceDir)
			fmt.Fprintln(out, renderPairs("Taxonomy", "Entries", rows, true))

			collisions := eng.Collisions()
			total := 0
			for _, kind := range taxonomy.Kinds {
				for _, collision := range collisions[kind] {
					total++
					fmt.Fprintf(out, "collision: %s %q kept %q, rejected %q\n",
						kind, collision.Variant, collision.Kept, collision.Rejected)
				}
			}
			if total == 0 {
				fmt.Fprintln(out, "No name collisions")
			} else {
				fmt.Fprintf(out, "%d name collisions; first registration wins\n", total)
			}
			return nil
		},
	}
}
