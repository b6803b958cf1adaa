package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"leadsync_backend/internal/bootstrap"
	"leadsync_backend/internal/leadsync"
	"leadsync_backend/internal/submission"

	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run one submission through the sync pipeline again",
	Long: `Run one submission through the sync pipeline again.

The body comes from a local JSON file (--file) or from the submission
archive (--archive-key). This creates CRM records just like the webhook.`,
	RunE: runReplay,
}

var (
	replayFormID  int64
	replayEntryID int64
	replayFile    string
	replayKey     string
)

func init() {
	replayCmd.Flags().Int64Var(&replayFormID, "form", 0, "form id")
	replayCmd.Flags().Int64Var(&replayEntryID, "entry", 0, "entry id")
	replayCmd.Flags().StringVar(&replayFile, "file", "", "submission JSON file")
	replayCmd.Flags().StringVar(&replayKey, "archive-key", "", "key of an archived submission")
	_ = replayCmd.MarkFlagRequired("form")
	_ = replayCmd.MarkFlagRequired("entry")
	replayCmd.MarkFlagsMutuallyExclusive("file", "archive-key")
	replayCmd.MarkFlagsOneRequired("file", "archive-key")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, _ []string) error {
	return withComponents(cmd, func(ctx context.Context, c *bootstrap.Components) error {
		raw, err := loadReplayBody(ctx, c)
		if err != nil {
			return err
		}
		fields, err := submission.Parse(raw)
		if err != nil {
			return fmt.Errorf("submission body: %w", err)
		}

		out, err := c.Sync.ProcessSubmission(ctx, leadsync.Event{
			FormID:     replayFormID,
			EntryID:    replayEntryID,
			Fields:     fields,
			ReceivedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	})
}

func loadReplayBody(ctx context.Context, c *bootstrap.Components) ([]byte, error) {
	if replayFile != "" {
		return os.ReadFile(replayFile)
	}
	if c.Archive == nil {
		return nil, errors.New("submission archive is not configured")
	}
	return c.Archive.Load(ctx, replayKey)
}
