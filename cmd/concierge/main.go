// Copyright 2026 Quellwerk Systems
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
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/quellwerk/concierge"
	"github.com/quellwerk/concierge/ai"
	"github.com/quellwerk/concierge/core"
	"github.com/quellwerk/concierge/knowledge"
	"github.com/quellwerk/concierge/orchestrator"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "concierge",
		Usage: "Multi-tenant AI support agent for brand customer service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chat",
				Usage:  "Interactive support conversation for one brand",
				Action: chatCommand,
				Flags: append(storageFlags(), aiFlags(
					&cli.StringFlag{
						Name:     "brand",
						Aliases:  []string{"b"},
						Usage:    "Tenant id of the brand to talk to",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "session",
						Usage: "Session id to resume (default: a new session)",
					},
					&cli.StringFlag{
						Name:  "customer",
						Usage: "Customer id attached to the session",
					},
				)...),
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a directory of documents into a brand's knowledge base",
				Action: ingestCommand,
				Flags: append(storageFlags(), aiFlags(
					&cli.StringFlag{
						Name:     "brand",
						Aliases:  []string{"b"},
						Usage:    "Tenant id of the brand to ingest for",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "dir",
						Usage:    "Directory of .md/.txt documents",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "replace",
						Usage: "Replace the brand's entire knowledge base",
					},
				)...),
			},
			{
				Name:   "sweep",
				Usage:  "Expire idle sessions once and exit",
				Action: sweepCommand,
				Flags:  storageFlags(),
			},
			{
				Name:   "tickets",
				Usage:  "List pending escalation tickets",
				Action: ticketsCommand,
				Flags: append(storageFlags(),
					&cli.StringFlag{
						Name:    "brand",
						Aliases: []string{"b"},
						Usage:   "Tenant id to filter by (default: all brands)",
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "tenants",
			Aliases:  []string{"t"},
			Usage:    "Directory of tenant configuration YAML files",
			Required: true,
		},
	}
}

func aiFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "completion-model",
			Usage: "Completion model name",
			Value: "qwen2.5:3b",
		},
	}, extra...)
}

func openEngine(c *cli.Context) (*concierge.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithCompletionModel(c.String("completion-model")),
	)

	engine, err := concierge.Open(c.String("db"), c.String("tenants"),
		concierge.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}

func chatCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	brand := c.String("brand")
	sessionID := c.String("session")
	if sessionID == "" {
		sessionID = fmt.Sprintf("cli-%d", os.Getpid())
	}

	fmt.Fprintf(os.Stderr, "Brand: %s\n", brand)
	fmt.Fprintf(os.Stderr, "Session: %s\n", sessionID)
	fmt.Fprintln(os.Stderr, "Type a message and press enter; Ctrl-D to exit.")
	fmt.Fprintln(os.Stderr)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}

		resp, err := engine.Process(ctx, &orchestrator.Request{
			Brand:      brand,
			Message:    message,
			SessionID:  sessionID,
			CustomerID: c.String("customer"),
		})
		if err != nil {
			return fmt.Errorf("processing turn failed: %w", err)
		}

		fmt.Println(resp.Response)
		if resp.EscalationRequired {
			fmt.Fprintf(os.Stderr, "[escalated: %s, ticket %d]\n", resp.EscalationReason, resp.TicketID)
		}
		if len(resp.Sources) > 0 {
			fmt.Fprintf(os.Stderr, "[%d sources, confidence %.2f, %.2fs]\n",
				len(resp.Sources), resp.Confidence, resp.ProcessingTime)
		}
	}

	return scanner.Err()
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	docs, err := loadDocuments(c.String("dir"))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no .md or .txt documents in %s", c.String("dir"))
	}

	brand := c.String("brand")
	var count int
	if c.Bool("replace") {
		count, err = engine.Reingest(ctx, brand, docs...)
	} else {
		count, err = engine.Ingest(ctx, brand, docs...)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Ingested %d documents (%d chunks) for %s\n", len(docs), count, brand)
	return nil
}

func sweepCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	expired, err := engine.ExpireIdleSessions(context.Background())
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Expired %d idle sessions\n", expired)
	return nil
}

func ticketsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	tickets, err := engine.PendingTickets(context.Background(), c.String("brand"))
	if err != nil {
		return fmt.Errorf("listing tickets failed: %w", err)
	}

	if len(tickets) == 0 {
		fmt.Fprintln(os.Stderr, "No pending tickets")
		return nil
	}

	for _, ticket := range tickets {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\t%s\n",
			ticket.ID, ticket.TenantID, ticket.SessionID,
			ticket.Reason, priorityName(ticket.Priority), ticket.Department)
	}
	return nil
}

// loadDocuments reads every .md and .txt file in dir as one document.
// The first line becomes the title when it looks like a heading.
func loadDocuments(dir string) ([]knowledge.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading document directory: %w", err)
	}

	var docs []knowledge.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".md" && ext != ".txt" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		text := string(data)
		title := strings.TrimSuffix(name, ext)
		if line, _, found := strings.Cut(text, "\n"); found {
			if heading := strings.TrimSpace(strings.TrimLeft(line, "# ")); heading != "" && strings.HasPrefix(line, "#") {
				title = heading
			}
		}

		docs = append(docs, knowledge.Document{
			Title: title,
			Path:  name,
			Text:  text,
		})
	}
	return docs, nil
}

func priorityName(p core.TicketPriority) string {
	switch p {
	case core.PriorityUrgent:
		return "urgent"
	case core.PriorityHigh:
		return "high"
	case core.PriorityMedium:
		return "medium"
	default:
		return "low"
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
