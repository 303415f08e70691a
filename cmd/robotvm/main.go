// Command robotvm assembles and runs programs for the robot bytecode
// machine: compile source to a ROM image, run a program to completion, or
// disassemble a ROM back to text.
package main

import (
	goflag "flag"
	"fmt"
	"os"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/oisee/robotvm/asm"
	"github.com/oisee/robotvm/vm"
)

func main() {
	defer glog.Flush()

	root := &cobra.Command{
		Use:   "robotvm",
		Short: "Assembler and interpreter for the robot bytecode machine",
	}
	root.AddCommand(newCompileCmd(), newRunCmd(), newDisasmCmd())

	// glog registers its flags (-v, -logtostderr, ...) on the standard flag
	// package, but cobra parses os.Args itself through pflag. Merge glog's
	// flag set into the root command's persistent flags so -v/-logtostderr
	// parse correctly through any subcommand invocation.
	root.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	if err := root.Execute(); err != nil {
		glog.Fatal(err)
	}
}

func newCompileCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "compile <source.asm>",
		Short: "Assemble a source file into a flat ROM image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			m := vm.New()
			if err := asm.Compile(string(source), m); err != nil {
				return err
			}
			glog.Infof("assembled %s: %d bytes", args[0], m.RWP())
			if output == "" {
				output = strings.TrimSuffix(args[0], ".asm") + ".rom"
			}
			return os.WriteFile(output, m.ROMBytes(), 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output ROM file (default: <source>.rom)")
	return cmd
}

func newRunCmd() *cobra.Command {
	var verbose bool
	var maxSteps int
	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Assemble (if .asm) or load (if .rom) a program and run it to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			steps := 0
			for !m.IsHalted() {
				if maxSteps > 0 && steps >= maxSteps {
					return fmt.Errorf("robotvm: exceeded %d steps without halting", maxSteps)
				}
				if verbose {
					glog.Infof("%s", m)
				}
				m.Step()
				steps++
			}
			r := m.Registers()
			fmt.Printf("halted after %d steps\n", steps)
			fmt.Printf("R1=%d R2=%d R3=%d R4=%d PC=%#04x SP=%#02x IX=%#04x\n",
				r.R1, r.R2, r.R3, r.R4, r.PC, r.SP, r.IX)
			if m.IllegalInstruction() {
				fmt.Println("illegal_instruction: set")
			}
			if m.OnFire() {
				fmt.Println("on_fire: set")
			}
			return nil
		},
	}
	// No -v shorthand: glog already claims -v (verbosity level) on the
	// standard flag package, and this flag lives on a disjoint pflag set.
	cmd.Flags().BoolVar(&verbose, "verbose", false, "trace each step")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 1_000_000, "abort after this many steps (0 disables the limit)")
	return cmd
}

func newDisasmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasm <program>",
		Short: "Assemble (if .asm) or load (if .rom) a program and print its disassembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			fmt.Println(m.PrintROM())
			return nil
		},
	}
	return cmd
}

func loadProgram(path string) (*vm.VM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := vm.New()
	if strings.HasSuffix(path, ".rom") {
		if err := m.Burn(0, data); err != nil {
			return nil, err
		}
		m.SetRWP(uint16(len(data)))
		return m, nil
	}
	if err := asm.Compile(string(data), m); err != nil {
		return nil, err
	}
	return m, nil
}
