// ubblctl evaluates buildings against the UBBL clause table offline.
//
// Usage:
//
//	ubblctl check --type residential --height 12 --floor-area 500 --occupancy 20
//	ubblctl clauses --type industrial --section fire
//	ubblctl explain UBBL-168
//	ubblctl --clauses ./my-table.yaml check ... -o json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	outputFmt  string
	clauseFile string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ubblctl",
		Short: "Check buildings against UBBL clauses",
		Long: `ubblctl runs the compliance evaluator locally.

It uses the embedded Uniform Building By-Laws clause table unless a
custom YAML table is given with --clauses.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&clauseFile, "clauses", "", "Clause table YAML file (default: embedded UBBL table)")

	// Add subcommands
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(clausesCmd())
	rootCmd.AddCommand(explainCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
