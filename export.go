package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <entity>",
	Short: "Write an entity list as an Excel workbook",
	Long: fmt.Sprintf(`Write every record of one entity to an Excel workbook.

entity is one of: %s (singular or plural).
With --out the workbook is written to that path. Otherwise it goes to the
configured export sink (a local directory or an S3 bucket).`, entityNames()),
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write the workbook to this path instead of the export sink")
}

func entityNames() string {
	names := make([]string, len(export.Entities))
	for i, e := range export.Entities {
		names[i] = e.Plural()
	}
	return strings.Join(names, ", ")
}

func runExport(cmd *cobra.Command, args []string) error {
	entity, err := export.ParseEntity(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	exporter := export.NewExporter(a.enterprises, a.contacts, a.opportunities, a.activities, logger)

	var data []byte
	err = a.scoped(ctx, func(ctx context.Context) error {
		var buildErr error
		data, buildErr = exporter.Bytes(ctx, entity)
		return buildErr
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", entity.Plural(), err)
	}

	var location string
	if exportOut != "" {
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOut, err)
		}
		location = exportOut
	} else {
		sink, err := export.NewSink(ctx, cfg.Export)
		if err != nil {
			return err
		}
		location, err = sink.Put(ctx, export.FileName(entity, a.clock.Today()), data)
		if err != nil {
			return err
		}
	}

	logger.Info("Export written",
		zap.String("entity", string(entity)),
		zap.Int("bytes", len(data)),
		zap.String("location", location))
	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}
