package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/edgeops/sensorctl/internal/api"
	"github.com/edgeops/sensorctl/internal/config"
	"github.com/edgeops/sensorctl/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk-import sensors into a definition from a CSV file",
}

func newImportSubCmd(class api.SensorClass) *cobra.Command {
	var (
		protoFlag    string
		definitionID string
		filename     string
		batchSize    int
		dryRun       bool
	)
	cmd := &cobra.Command{
		Use:   string(class),
		Short: fmt.Sprintf("Import %s sensors", class),
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := api.ParseProtocol(protoFlag)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runImport(cfg, proto, class, definitionID, filename, batchSize, dryRun)
		},
	}
	cmd.Flags().StringVarP(&protoFlag, "protocol", "p", "bacnet", "protocol, bacnet or modbus")
	cmd.Flags().StringVarP(&definitionID, "definition-id", "d", "", "target definition id")
	cmd.Flags().StringVarP(&filename, "filename", "f", "", "CSV input file")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per request (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate only, submit nothing")
	_ = cmd.MarkFlagRequired("definition-id")
	_ = cmd.MarkFlagRequired("filename")
	return cmd
}

func runImport(cfg *config.Config, proto api.Protocol, class api.SensorClass,
	definitionID, filename string, batchSize int, dryRun bool) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("input file %s: %w", filename, err)
	}
	defer f.Close()

	// The whole run is bounded by run_timeout; an interrupt stops issuing
	// new batches but lets in-flight ones finish and be recorded.
	runCtx, cancel := context.WithTimeout(context.Background(), cfg.Import.RunTimeout)
	defer cancel()
	sigCtx, sigCancel := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer sigCancel()

	log.Info("starting sensor import", zap.String("protocol", string(proto)),
		zap.String("class", string(class)), zap.String("definition", definitionID),
		zap.String("file", filename))

	parser := importer.Parser{Protocol: proto, Class: class}
	candidates, parseErrs, err := parser.Parse(f)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	client := newClient(cfg)
	resolver := importer.NewResolver(client, log)
	assetType, err := resolver.DefinitionAssetType(runCtx, proto, definitionID)
	if err != nil {
		return err
	}
	schema, err := resolver.Resolve(runCtx, assetType, class)
	if err != nil {
		return err
	}

	validated, rejections := importer.ValidateAll(schema, candidates)

	report := &importer.ImportReport{}
	for _, e := range parseErrs {
		report.AddParseError(e)
	}
	for _, rej := range rejections {
		report.AddRejection(rej)
	}

	if batchSize <= 0 {
		batchSize = cfg.Import.BatchSize
	}
	batches := importer.MakeBatches(validated, batchSize)

	if dryRun {
		fmt.Printf("dry run: %d records in %d batches would be submitted\n",
			len(validated), len(batches))
	} else {
		exec := importer.NewExecutor(client, proto, class, definitionID,
			retryPolicy(cfg), cfg.Import.MaxInFlight, log)
		exec.Execute(runCtx, sigCtx.Done(), batches, report)
	}

	fmt.Print(report.Summary())
	if !report.OK() {
		return fmt.Errorf("import finished with %d rejected, %d failed, %d parse errors",
			report.Rejected, report.Failed, len(report.ParseErrors))
	}
	return nil
}

func retryPolicy(cfg *config.Config) importer.RetryPolicy {
	return importer.RetryPolicy{
		MaxAttempts: cfg.Import.Retry.MaxAttempts,
		BaseDelay:   cfg.Import.Retry.BaseDelay,
		MaxDelay:    cfg.Import.Retry.MaxDelay,
	}
}

func init() {
	importCmd.AddCommand(newImportSubCmd(api.ClassNumeric), newImportSubCmd(api.ClassNonNumeric))
	rootCmd.AddCommand(importCmd)
}
