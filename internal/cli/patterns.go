package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List stored patterns",
		Run:   runPatterns,
	}

	cmd.Flags().Bool("names-only", false, "Only output pattern names")

	RootCmd.AddCommand(cmd)
}

func runPatterns(cmd *cobra.Command, _ []string) {
	namesOnly, _ := cmd.Flags().GetBool("names-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}

	names, err := s.ListPatterns()
	if err != nil {
		exitErr("list patterns", err)
	}

	for _, name := range names {
		if namesOnly {
			fmt.Println(name)
			continue
		}
		p, err := s.LoadPattern(name)
		if err != nil {
			exitErr("load pattern", err)
		}
		fmt.Printf("%s\t%d actions\ttolerance %.0fms\n", p.Name(), p.Len(), p.DefaultToleranceMS())
	}
}
