package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the photovault version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("photovault %s\n", Version)
	},
}
