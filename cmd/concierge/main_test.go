package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				require.NoError(t, newApp().Run([]string{"test", "--log-level", level}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("alias -l works", func(t *testing.T) {
		require.NoError(t, newApp().Run([]string{"test", "-l", "debug"}))
	})
}

func TestStorageFlagsRequired(t *testing.T) {
	app := &cli.App{
		Name: "concierge",
		Commands: []*cli.Command{
			{
				Name:   "sweep",
				Action: sweepCommand,
				Flags:  storageFlags(),
			},
		},
	}

	err := app.Run([]string{"concierge", "sweep"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "versand.md"),
		[]byte("# Versand und Lieferung\n\nDer Versand dauert zwei Werktage."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "retouren.txt"),
		[]byte("Retouren sind 30 Tage lang kostenlos."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.pdf"),
		[]byte("binary"), 0o644))

	docs, err := loadDocuments(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byPath := make(map[string]string, len(docs))
	for _, doc := range docs {
		byPath[doc.Path] = doc.Title
	}
	assert.Equal(t, "Versand und Lieferung", byPath["versand.md"])
	assert.Equal(t, "retouren", byPath["retouren.txt"])
}

func TestLoadDocuments_MissingDir(t *testing.T) {
	_, err := loadDocuments("/nonexistent/path")
	assert.Error(t, err)
}
