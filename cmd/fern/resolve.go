package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/models"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve one batch read from a file and print the correlations",
	Example: `  fern resolve --file batch.json
  cat batch.json | fern resolve --file -`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringP("file", "f", "-", "batch JSON file, - for stdin")
	resolveCmd.Flags().String("tenant", "", "tenant id used when the batch has none")
}

func readBatch(path string, stdin io.Reader) (models.BatchRequest, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.BatchRequest{}, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req models.BatchRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return models.BatchRequest{}, fmt.Errorf("failed to decode batch: %w", err)
	}
	return req, nil
}

func runResolve(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	tenant, _ := cmd.Flags().GetString("tenant")

	req, err := readBatch(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if req.TenantID == "" {
		req.TenantID = tenant
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, syncLogs, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogs()

	ctx := cmd.Context()
	a := newApp(cfg, logger, appOptions{})
	if err := a.startup.Start(ctx); err != nil {
		return err
	}
	defer a.startup.Stop(ctx)

	resp, err := a.service.ResolveAndLink(ctx, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
