package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ascript",
	Short: "AngelScript-style bytecode toolkit",
	Long: `ascript inspects and runs the compiled bytecode (.asbc files)
produced by the go-angelscript engine.

This engine compiles a pre-built AST straight to bytecode — it carries
no lexer or parser of its own, so this CLI operates on already-compiled
.asbc modules rather than on script source text. Host applications that
need a text-in pipeline construct the AST themselves and drive
pkg/ascript directly; this tool is for inspecting and executing the
bytecode that process produces.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
