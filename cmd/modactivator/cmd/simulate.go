package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/modactivator"
)

// NewSimulateCommand creates the simulate command
func NewSimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <plan>",
		Short: "Run lifecycle operations against simulated modules",
		Long: `Register a simulated activator for every module of the plan, start them
all, apply the requested stops and unloads, then shut down. Every hook
invocation is printed in the order it happens.

A module's fail_hook makes its simulated activator fail that hook.

Examples:
  modactivator simulate plan.yaml
  modactivator simulate plan.yaml --stop db --unload api
  modactivator simulate plan.yaml --policy attempt-dependents`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}

	cmd.Flags().StringArray("stop", nil, "Stop a module (and its dependents) after starting; repeatable")
	cmd.Flags().StringArray("unload", nil, "Unload a module after the stops; repeatable")
	cmd.Flags().String("policy", string(modactivator.SkipDependents), "Start failure policy: skip-dependents or attempt-dependents")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	stops, _ := cmd.Flags().GetStringArray("stop")
	unloads, _ := cmd.Flags().GetStringArray("unload")
	policy, _ := cmd.Flags().GetString("policy")

	plan, err := LoadPlan(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	orch, err := plan.Orchestrator(out, modactivator.WithStartFailurePolicy(modactivator.StartFailurePolicy(policy)))
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	fmt.Fprintln(out, "startAll")
	res, err := orch.StartAll(ctx)
	if err != nil {
		return err
	}
	printResult(out, res)

	for _, id := range stops {
		fmt.Fprintf(out, "stopModule %s\n", id)
		res, err := orch.StopModule(ctx, id)
		if err != nil {
			return err
		}
		printResult(out, res)
	}

	for _, id := range unloads {
		fmt.Fprintf(out, "unloadModule %s\n", id)
		res, err := orch.UnloadModule(ctx, id)
		if err != nil {
			return err
		}
		printResult(out, res)
	}

	fmt.Fprintln(out, "shutdown")
	res, err = orch.Shutdown(ctx)
	if err != nil {
		return err
	}
	printResult(out, res)

	fmt.Fprintln(out, "final states")
	for _, id := range orch.Modules() {
		state, _ := orch.State(id)
		fmt.Fprintf(out, "  %s: %s\n", id, state)
	}
	return nil
}

func printResult(w io.Writer, res *modactivator.Result) {
	fmt.Fprintf(w, "  => transitioned [%s]", strings.Join(res.Transitioned, " "))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, " skipped [%s]", strings.Join(res.SkippedModules(), " "))
	}
	if len(res.Failures) > 0 {
		fmt.Fprintf(w, " failed [%s]", strings.Join(res.FailedModules(), " "))
	}
	fmt.Fprintln(w)
}
