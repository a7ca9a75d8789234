package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/heap"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/cwbudde/go-angelscript/internal/vm"
	"github.com/spf13/cobra"
)

var runEntry string

var runCmd = &cobra.Command{
	Use:   "run [file.asbc]",
	Short: "Execute a compiled bytecode module",
	Long: `Load a .asbc bytecode module and execute one of its functions.

Examples:
  # Run the module's "main" function
  ascript run program.asbc

  # Run a specific entry point
  ascript run program.asbc --entry answer`,
	Args: cobra.ExactArgs(1),
	RunE: runModule,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runEntry, "entry", "main", "name of the function to execute")
}

func runModule(_ *cobra.Command, args []string) error {
	filename := args[0]
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	reg := registry.New()
	mod, err := bytecode.Deserialize(data, reg)
	if err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", filename, err)
	}

	var fn *bytecode.FunctionObject
	for _, f := range mod.Functions {
		if f.Name == runEntry {
			fn = f
			break
		}
	}
	if fn == nil {
		return fmt.Errorf("no function named %q in %s", runEntry, filename)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Running %s::%s...\n", filename, runEntry)
	}

	ctx := vm.NewContext(mod, heap.New())
	ctx.SetOutput(os.Stdout)

	result, err := ctx.Call(fn.ID, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		return fmt.Errorf("execution failed")
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Result: %+v (state: %s)\n", result, ctx.State())
	}
	return nil
}
