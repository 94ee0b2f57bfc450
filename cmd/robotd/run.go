package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhavanagoud111/The-Robot-driver/internal/artifact"
	"github.com/bhavanagoud111/The-Robot-driver/internal/browser"
	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
	"github.com/bhavanagoud111/The-Robot-driver/internal/config"
	"github.com/bhavanagoud111/The-Robot-driver/internal/engine"
	"github.com/bhavanagoud111/The-Robot-driver/internal/task"
)

func newRunCommand() *cobra.Command {
	var planOnly bool

	cmd := &cobra.Command{
		Use:   "run <goal>",
		Short: "Execute a single goal and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, strings.Join(args, " "), planOnly)
		},
	}
	cmd.Flags().BoolVar(&planOnly, "plan-only", false, "compile and print the plan without executing it")
	return cmd
}

func runOnce(cmd *cobra.Command, goal string, planOnly bool) error {
	cfg := config.Load()
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store := task.NewStore(0)
	eng := engine.New(store, browser.NewCDPDriver(cfg.CDPBaseURL), cat, nil, artifact.Disabled{}, engine.Config{
		QueueSize:   1,
		Workers:     1,
		TaskTimeout: cfg.TaskTimeout,
		StepBudget:  cfg.StepBudget,
		StealthMode: cfg.StealthMode,
	}, log.Default())

	if !planOnly {
		eng.Start(ctx)
	}

	created, err := eng.Submit(ctx, goal)
	if err != nil {
		return err
	}
	if planOnly {
		return printJSON(cmd, created.Plan)
	}

	deadline := time.Now().Add(cfg.TaskTimeout + 10*time.Second)
	for time.Now().Before(deadline) {
		current, err := eng.Task(ctx, created.ID)
		if err != nil {
			return err
		}
		if current.Status.Terminal() {
			return printJSON(cmd, current)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return fmt.Errorf("task %s did not finish in time", created.ID)
}

func printJSON(cmd *cobra.Command, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
