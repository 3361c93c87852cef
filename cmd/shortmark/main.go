package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shortmark/shortmark/internal/build"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "shortmark",
		Short:        "A bookmark service with 3-character short links",
		Long:         "shortmark keeps personal bookmarks and redirects short codes to their URLs.",
		Version:      fmt.Sprintf("%s (%s, %s)", build.Version, build.Commit, build.Branch),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
