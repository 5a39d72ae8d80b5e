// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/semkit/ai"
	"github.com/poiesic/semkit/ai/openai"
	"github.com/poiesic/semkit/planner"
	"github.com/urfave/cli/v2"
)

const (
	defaultPluginsDir = "samples/plugins"
	defaultPlugin     = "FunPlugin"
	defaultFunction   = "Joke"
	defaultInput      = "time travel to dinosaur age"
)

// newService builds the completion service. Tests replace it.
var newService = openai.NewService

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "semkit",
		Usage: "Run semantic functions and plans against OpenAI or Azure OpenAI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringSliceFlag{
				Name:    "env-file",
				Usage:   "Read credentials from these .env files (later files win)",
				EnvVars: []string{"SEMKIT_ENV_FILE"},
				Value:   cli.NewStringSlice(".env"),
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "Completion provider (openai, azure)",
				EnvVars: []string{"SEMKIT_PROVIDER"},
				Value:   string(ai.ProviderOpenAI),
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "OpenAI chat model (ignored for azure, which uses the deployment)",
				EnvVars: []string{"SEMKIT_MODEL"},
				Value:   ai.DefaultConfig().Model,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "invoke",
				Usage:  "Invoke one semantic function with one input",
				Action: invokeCommand,
				Flags: []cli.Flag{
					pluginsDirFlag(),
					&cli.StringFlag{
						Name:    "plugin",
						Aliases: []string{"p"},
						Usage:   "Plugin directory name",
						Value:   defaultPlugin,
					},
					&cli.StringFlag{
						Name:    "function",
						Aliases: []string{"f"},
						Usage:   "Function to invoke",
						Value:   defaultFunction,
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Input text",
						Value:   defaultInput,
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List the functions of plugins without calling any service",
				Action: listCommand,
				Flags: []cli.Flag{
					pluginsDirFlag(),
					&cli.StringSliceFlag{
						Name:    "plugin",
						Aliases: []string{"p"},
						Usage:   "Plugin directory names (repeatable)",
						Value:   cli.NewStringSlice(defaultPlugin),
					},
				},
			},
			{
				Name:   "plan",
				Usage:  "Create a sequential plan for a goal, and optionally run it",
				Action: planCommand,
				Flags: []cli.Flag{
					pluginsDirFlag(),
					&cli.StringFlag{
						Name:     "goal",
						Aliases:  []string{"g"},
						Usage:    "Goal to plan for",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:    "plugin",
						Aliases: []string{"p"},
						Usage:   "Plugin directory names (repeatable)",
						Value:   cli.NewStringSlice("FunPlugin", "WriterPlugin"),
					},
					&cli.IntFlag{
						Name:  "retries",
						Usage: "Maximum attempts at creating a plan",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 2 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "max-retry-delay",
						Usage: "Longest single backoff delay",
						Value: 7 * time.Second,
					},
					&cli.Float64Flag{
						Name:  "relevancy-threshold",
						Usage: "Offer only functions at least this relevant to the goal (0 disables, needs an embedding model)",
					},
					&cli.IntFlag{
						Name:  "max-relevant-functions",
						Usage: "Cap on functions offered when filtering by relevancy",
						Value: 100,
					},
					&cli.StringFlag{
						Name:  "memory-dir",
						Usage: "BadgerDB directory for function embeddings (in memory when empty)",
					},
					&cli.BoolFlag{
						Name:  "allow-missing",
						Usage: "Drop plan steps that name unknown functions",
					},
					&cli.BoolFlag{
						Name:    "execute",
						Aliases: []string{"x"},
						Usage:   "Run the plan after creating it",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Recompute stored function embeddings with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "memory-dir",
						Usage:    "BadgerDB directory holding function embeddings",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Memory collection to re-embed",
						Value: planner.MemoryCollection,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records embedded per request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N records",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
				},
			},
		},
	}
}

func pluginsDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "plugins-dir",
		Aliases: []string{"d"},
		Usage:   "Directory containing plugin directories",
		EnvVars: []string{"SEMKIT_PLUGINS_DIR"},
		Value:   defaultPluginsDir,
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
