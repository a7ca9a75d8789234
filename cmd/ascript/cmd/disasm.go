package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-angelscript/internal/bytecode"
	"github.com/cwbudde/go-angelscript/internal/registry"
	"github.com/spf13/cobra"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [file.asbc]",
	Short: "Disassemble a compiled bytecode module",
	Long: `Load a .asbc bytecode module and print a human-readable listing
of every function's instructions, grounded one-for-one in the opcode
table internal/bytecode defines.

Example:
  ascript disasm program.asbc`,
	Args: cobra.ExactArgs(1),
	RunE: disasmModule,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
}

func disasmModule(_ *cobra.Command, args []string) error {
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

	fmt.Print(bytecode.DisassembleModule(mod))
	return nil
}
