package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/edgeops/sensorctl/internal/api"
	"github.com/edgeops/sensorctl/internal/output"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Inspect sensors of a definition",
}

func newSensorListCmd() *cobra.Command {
	var (
		protoFlag    string
		classFlag    string
		definitionID string
		outputType   string
		filename     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List existing sensors for a definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := api.ParseProtocol(protoFlag)
			if err != nil {
				return err
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
			client := newClient(cfg)

			var items []output.Renderable
			if class == api.ClassNonNumeric {
				sensors, err := client.ListNonNumericSensors(ctx, proto, definitionID)
				if err != nil {
					return err
				}
				for _, s := range sensors {
					items = append(items, s)
				}
			} else {
				sensors, err := client.ListNumericSensors(ctx, proto, definitionID)
				if err != nil {
					return err
				}
				for _, s := range sensors {
					items = append(items, s)
				}
			}
			return output.Handle(outputType, filename, items)
		},
	}
	cmd.Flags().StringVarP(&protoFlag, "protocol", "p", "bacnet", "protocol, bacnet or modbus")
	cmd.Flags().StringVarP(&classFlag, "class", "c", "numeric", "sensor class, numeric or non-numeric")
	cmd.Flags().StringVarP(&definitionID, "definition-id", "d", "", "definition id")
	cmd.Flags().StringVarP(&outputType, "output", "o", "record", "output type, record or csv")
	cmd.Flags().StringVarP(&filename, "filename", "f", "", "output filename for csv, e.g. sensors.csv")
	_ = cmd.MarkFlagRequired("definition-id")
	return cmd
}

func init() {
	sensorCmd.AddCommand(newSensorListCmd())
	rootCmd.AddCommand(sensorCmd)
}
