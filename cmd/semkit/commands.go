package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/semkit"
	"github.com/poiesic/semkit/ai"
	"github.com/poiesic/semkit/builtin"
	"github.com/poiesic/semkit/core"
	"github.com/poiesic/semkit/memory"
	"github.com/poiesic/semkit/memory/badger"
	"github.com/poiesic/semkit/planner"
	"github.com/poiesic/semkit/retry"
	"github.com/poiesic/semkit/settings"
	"github.com/urfave/cli/v2"
)

const serviceID = "default"

// loadService reads credentials for the selected provider and builds the
// completion service.
func loadService(c *cli.Context) (ai.Service, error) {
	provider, err := ai.ParseProvider(c.String("provider"))
	if err != nil {
		return nil, err
	}

	var extra []ai.ConfigOption
	if provider == ai.ProviderOpenAI {
		extra = append(extra, ai.WithModel(c.String("model")))
	}
	config, err := settings.ConfigFromDotEnv(provider, c.StringSlice("env-file"), extra...)
	if err != nil {
		return nil, fmt.Errorf("loading %s settings: %w", provider, err)
	}

	svc, err := newService(config)
	if err != nil {
		return nil, fmt.Errorf("creating %s service: %w", provider, err)
	}
	slog.Debug("created completion service", "provider", provider, "model", config.ModelName())
	return svc, nil
}

// newKernel builds a kernel with the built-in plugins and the named
// semantic plugins. svc may be nil when no function will be invoked.
func newKernel(svc ai.Service, pluginsDir string, plugins ...string) (*semkit.Kernel, error) {
	kernel := semkit.NewKernel()
	if svc != nil {
		if err := kernel.AddService(serviceID, svc); err != nil {
			return nil, err
		}
	}
	if _, err := kernel.ImportPlugin(builtin.TextPluginName, builtin.TextPlugin()...); err != nil {
		return nil, err
	}
	if _, err := kernel.ImportPlugin(builtin.TimePluginName, builtin.TimePlugin(time.Now)...); err != nil {
		return nil, err
	}
	for _, name := range plugins {
		if _, err := kernel.ImportSemanticPluginFromDirectory(pluginsDir, name); err != nil {
			return nil, fmt.Errorf("importing plugin %q from %s: %w", name, pluginsDir, err)
		}
	}
	return kernel, nil
}

func invokeCommand(c *cli.Context) error {
	svc, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pluginName := c.String("plugin")
	kernel, err := newKernel(svc, c.String("plugins-dir"), pluginName)
	if err != nil {
		return err
	}
	defer kernel.Close()

	fn, err := kernel.Func(pluginName, c.String("function"))
	if err != nil {
		return err
	}

	out, err := kernel.Invoke(c.Context, fn, c.String("input"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, strings.TrimSpace(out))
	return nil
}

func listCommand(c *cli.Context) error {
	kernel, err := newKernel(nil, c.String("plugins-dir"), c.StringSlice("plugin")...)
	if err != nil {
		return err
	}
	defer kernel.Close()

	for _, view := range kernel.Views() {
		kind := "native"
		if view.IsSemantic {
			kind = "semantic"
		}
		fmt.Fprintf(c.App.Writer, "%s (%s)\n", view.FullyQualifiedName(), kind)
		if view.Description != "" {
			fmt.Fprintf(c.App.Writer, "  %s\n", view.Description)
		}
		for _, p := range view.Parameters {
			if p.DefaultValue != "" {
				fmt.Fprintf(c.App.Writer, "  - %s: %s (default %q)\n", p.Name, p.Description, p.DefaultValue)
			} else {
				fmt.Fprintf(c.App.Writer, "  - %s: %s\n", p.Name, p.Description)
			}
		}
	}
	return nil
}

// attachMemory gives the kernel a badger-backed memory so the planner can
// filter functions by relevancy.
func attachMemory(kernel *semkit.Kernel, svc ai.Service, dir string) error {
	embedder := svc.Embedder()
	if embedder == nil {
		return fmt.Errorf("relevancy filtering: %w", ai.ErrEmbeddingsUnavailable)
	}

	var store *badger.Store
	var err error
	if dir == "" {
		store, err = badger.OpenInMemory()
	} else {
		store, err = badger.Open(dir)
	}
	if err != nil {
		return fmt.Errorf("opening memory store: %w", err)
	}

	mem, err := memory.NewTextMemory(store, embedder)
	if err != nil {
		store.Close()
		return err
	}
	return kernel.RegisterMemory(mem)
}

func reembedCommand(c *cli.Context) error {
	svc, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	kernel := semkit.NewKernel()
	defer kernel.Close()
	if err := attachMemory(kernel, svc, c.String("memory-dir")); err != nil {
		return err
	}

	n, err := kernel.Memory().Reembed(c.Context, c.String("collection"), &memory.ReembedConfig{
		BatchSize:  c.Int("batch-size"),
		MaxRetries: c.Int("max-retries"),
		RetryDelay: time.Second,
		Progress:   memory.NewProgressTracker(c.App.ErrWriter, c.Int("report-interval")),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "re-embedded %d records in %s\n", n, c.String("collection"))
	return nil
}

func planCommand(c *cli.Context) error {
	svc, err := loadService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	kernel, err := newKernel(svc, c.String("plugins-dir"), c.StringSlice("plugin")...)
	if err != nil {
		return err
	}
	defer kernel.Close()

	opts := []planner.ConfigOption{
		planner.WithMaxRelevantFunctions(c.Int("max-relevant-functions")),
		planner.WithAllowMissingFunctions(c.Bool("allow-missing")),
	}
	if threshold := c.Float64("relevancy-threshold"); threshold > 0 {
		if err := attachMemory(kernel, svc, c.String("memory-dir")); err != nil {
			return err
		}
		opts = append(opts, planner.WithRelevancyThreshold(threshold))
	}

	p, err := planner.New(kernel, planner.NewConfig(opts...))
	if err != nil {
		return err
	}

	policy := retry.Policy{
		MaxAttempts: c.Int("retries"),
		BaseDelay:   c.Duration("retry-delay"),
		MaxDelay:    c.Duration("max-retry-delay"),
	}
	goal := c.String("goal")

	var plan *planner.Plan
	err = retry.Do(c.Context, policy, func(ctx context.Context) error {
		created, err := p.CreatePlan(ctx, goal)
		if errors.Is(err, planner.ErrInvalidGoal) {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		plan = created
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, plan.String())
	if !c.Bool("execute") {
		return nil
	}

	result, err := plan.Invoke(c.Context, kernel, core.NewVariables(goal))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer)
	fmt.Fprintln(c.App.Writer, strings.TrimSpace(result.Input()))
	return nil
}
