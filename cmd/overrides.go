package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/carecap/hospcap-cli/internal/override"
)

var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "Work with the manual-override table",
}

var overridesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the override table before a publish",
	Long:  "Loads the manual-override table and reports unknown columns, duplicate CCM_IDs, and partial coordinate pairs.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		manifest, err := loadManifest()
		if err != nil {
			return err
		}

		path := cfg.Data.OverridePath()
		tbl, err := override.Load(path, manifest)
		if err != nil {
			return eris.Wrapf(err, "overrides validate %s", path)
		}

		fmt.Printf("%s: %d override rows\n", path, tbl.Len())

		clean := true
		if len(tbl.UnknownColumns) > 0 {
			clean = false
			fmt.Fprintf(os.Stderr, "Unknown columns (not in export manifest):\n")
			for _, col := range tbl.UnknownColumns {
				fmt.Fprintf(os.Stderr, "  - %s\n", col)
			}
		}
		if len(tbl.DuplicateIDs) > 0 {
			clean = false
			fmt.Fprintf(os.Stderr, "Duplicate CCM_IDs (last row wins):\n")
			for _, id := range tbl.DuplicateIDs {
				fmt.Fprintf(os.Stderr, "  - %s\n", id)
			}
		}
		if len(tbl.PartialCoords) > 0 {
			clean = false
			fmt.Fprintf(os.Stderr, "Rows with only one coordinate (pair ignored):\n")
			for _, id := range tbl.PartialCoords {
				fmt.Fprintf(os.Stderr, "  - %s\n", id)
			}
		}

		if !clean {
			return eris.New("overrides validate: table has issues")
		}
		fmt.Println("OK")
		return nil
	},
}

func init() {
	overridesCmd.AddCommand(overridesValidateCmd)
	rootCmd.AddCommand(overridesCmd)
}
