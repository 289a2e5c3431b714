package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/griels/dephell"
	"github.com/griels/dephell/converters"
	"github.com/griels/dephell/graph"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "dephell",
	Short:         "Resolve version ranges into a conflict-free set of pinned packages",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run: prints help by default.
}

var (
	flagRegistry string
	flagLock     string
	flagGraph    string
	flagTimeout  time.Duration
	flagVerbose  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <requirements-file>",
	Short: "Resolve a requirements file against the registry",
	Long: "Reads requirement lines, resolves every transitive dependency to a " +
		"concrete version satisfying all contributing parents, and prints the " +
		"pinned set. On an unresolvable conflict the conflicting package and " +
		"its ancestor chain are reported.",
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&flagRegistry, "registry", dephell.DefaultRegistry, "registry base URL")
	resolveCmd.Flags().StringVar(&flagLock, "lock", "", "write a YAML lock file to this path")
	resolveCmd.Flags().StringVar(&flagGraph, "graph", "", "write a Graphviz DOT rendering to this path")
	resolveCmd.Flags().DurationVar(&flagTimeout, "timeout", 15*time.Second, "registry request timeout")
	resolveCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log resolution steps to stderr")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	root, err := converters.Requirements{}.Load(string(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	var opts []dephell.Option
	if flagVerbose {
		opts = append(opts, dephell.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}

	provider := dephell.NewPyPIProviderWithClient(flagRegistry, &http.Client{Timeout: flagTimeout})
	g := graph.NewGraph(root)
	resolver, err := dephell.NewResolver(g, provider, opts...)
	if err != nil {
		return err
	}

	_, err = resolver.Resolve(cmd.Context())
	if err != nil {
		var unsat *dephell.UnsatisfiableConstraintError
		if errors.As(err, &unsat) {
			fmt.Fprintln(os.Stderr, renderConflict(unsat))
			if flagGraph != "" {
				// The conflict slot is still set; render it for inspection.
				if werr := os.WriteFile(flagGraph, []byte(g.DOT()), 0o644); werr == nil {
					fmt.Fprintf(os.Stderr, "conflict graph written to %s\n", flagGraph)
				}
			}
		}
		return err
	}

	fmt.Print(converters.Requirements{}.Dump(g))

	if flagLock != "" {
		lock, err := converters.Lock{}.Dump(g)
		if err != nil {
			return err
		}
		if err := os.WriteFile(flagLock, []byte(lock), 0o644); err != nil {
			return err
		}
	}
	if flagGraph != "" {
		if err := os.WriteFile(flagGraph, []byte(g.DOT()), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func renderConflict(e *dephell.UnsatisfiableConstraintError) string {
	out := fmt.Sprintf("unresolvable conflict on %s:\n", e.Dep.Name)
	for _, spec := range e.Dep.Constraint.Specs() {
		rng := spec.Spec
		if rng == "" {
			rng = "any version"
		}
		out += fmt.Sprintf("  %s requires %s\n", spec.Source, rng)
	}
	if len(e.Ancestors) > 0 {
		out += "implicated ancestors:\n"
		for _, dep := range e.Ancestors {
			out += fmt.Sprintf("  %s\n", dep)
		}
	}
	return out
}
