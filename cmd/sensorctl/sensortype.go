package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgeops/sensorctl/internal/api"
	"github.com/edgeops/sensorctl/internal/output"
)

var sensorTypeCmd = &cobra.Command{
	Use:   "sensor-type",
	Short: "Inspect the platform's sensor type catalog",
}

func newSensorTypeListCmd() *cobra.Command {
	var (
		assetType  string
		classFlag  string
		outputType string
		filename   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sensor types compatible with an asset type",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !api.IsValidAssetType(assetType) {
				return fmt.Errorf("unknown asset type %q (expected one of %s)",
					assetType, strings.Join(api.AssetTypes, ", "))
			}
			class, err := api.ParseClass(classFlag)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			types, err := newClient(cfg).ListSensorTypes(ctx, assetType, class.ValueType())
			if err != nil {
				return err
			}
			items := make([]output.Renderable, len(types))
			for i := range types {
				items[i] = types[i]
			}
			return output.Handle(outputType, filename, items)
		},
	}
	cmd.Flags().StringVarP(&assetType, "asset-type", "t", "", "asset type, e.g. Crah")
	cmd.Flags().StringVarP(&classFlag, "sensor-class", "c", "numeric", "sensor class, numeric or enum")
	cmd.Flags().StringVarP(&outputType, "output", "o", "record", "output type, record or csv")
	cmd.Flags().StringVarP(&filename, "filename", "f", "", "output filename for csv")
	_ = cmd.MarkFlagRequired("asset-type")
	return cmd
}

func init() {
	sensorTypeCmd.AddCommand(newSensorTypeListCmd())
	rootCmd.AddCommand(sensorTypeCmd)
}
