package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resume-analyzer/analysis"
	"resume-analyzer/domain"
	"resume-analyzer/platform"
	"resume-analyzer/utils"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one resume and print the feedback",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("file", "f", "", "PDF resume to analyze")
	analyzeCmd.Flags().StringP("company", "c", "", "company name")
	analyzeCmd.Flags().StringP("title", "t", "", "job title")
	analyzeCmd.Flags().String("description", "", "job description")
	analyzeCmd.MarkFlagRequired("file")
}

func analyze(cmd *cobra.Command) error {
	logger := newLogger()
	defer logger.Sync()

	file, _ := cmd.Flags().GetString("file")
	company, _ := cmd.Flags().GetString("company")
	title, _ := cmd.Flags().GetString("title")
	description, _ := cmd.Flags().GetString("description")

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading resume: %w", err)
	}
	logger.Info("loaded resume", zap.String("file", file), zap.String("size", utils.FormatSize(int64(len(data)))))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, logger)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.waitPlatform(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, app.cfg.Analysis.Timeout)
	defer cancel()

	sessionID := utils.NewID()
	status := analysis.Fanout(
		func(s analysis.Status) { fmt.Fprintln(cmd.ErrOrStderr(), s.Text) },
		analysis.LogSink(logger, sessionID),
		analysis.MetricsSink(app.metrics),
		analysis.EventSink(ctx, app.eventPublisher(), sessionID, logger),
	)

	name := filepath.Base(file)
	id, err := app.analyzer.Analyze(ctx, analysis.Request{
		CompanyName:    company,
		JobTitle:       title,
		JobDescription: description,
		Document: domain.File{
			Name:        name,
			ContentType: platform.DetectContentType(name, data),
			Data:        data,
		},
	}, status)
	if err != nil {
		return err
	}

	value, ok := app.client.KV.Get(ctx, domain.RecordKey(id))
	if !ok || value == nil {
		return fmt.Errorf("reading analysis %s: %s", id, app.client.Err())
	}
	record, err := domain.DecodeRecord(*value)
	if err != nil {
		return err
	}

	out := json.NewEncoder(cmd.OutOrStdout())
	out.SetIndent("", "  ")
	return out.Encode(record)
}
