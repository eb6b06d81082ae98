package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edgeops/sensorctl/internal/api"
	"github.com/edgeops/sensorctl/internal/output"
)

var definitionCmd = &cobra.Command{
	Use:   "definition",
	Short: "Manage device definitions",
}

func newDefinitionListCmd() *cobra.Command {
	var protoFlag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List definitions for a protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := api.ParseProtocol(protoFlag)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			defs, err := newClient(cfg).ListDefinitions(ctx, proto)
			if err != nil {
				return err
			}
			items := make([]output.Renderable, len(defs))
			for i := range defs {
				items[i] = defs[i]
			}
			return output.Handle("record", "", items)
		},
	}
	cmd.Flags().StringVarP(&protoFlag, "protocol", "p", "bacnet", "protocol, bacnet or modbus")
	return cmd
}

func newDefinitionAddCmd() *cobra.Command {
	var (
		protoFlag string
		name      string
		assetType string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			proto, err := api.ParseProtocol(protoFlag)
			if err != nil {
				return err
			}
			if !api.IsValidAssetType(assetType) {
				return fmt.Errorf("unknown asset type %q (expected one of %s)",
					assetType, strings.Join(api.AssetTypes, ", "))
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			def, err := newClient(cfg).AddDefinition(ctx, proto, name, assetType)
			if err != nil {
				return err
			}
			fmt.Printf("created definition:\n%s\n", def)
			return nil
		},
	}
	cmd.Flags().StringVarP(&protoFlag, "protocol", "p", "bacnet", "protocol, bacnet or modbus")
	cmd.Flags().StringVarP(&name, "name", "n", "", "definition name")
	cmd.Flags().StringVarP(&assetType, "asset-type", "t", "", "asset type, e.g. Crah")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("asset-type")
	return cmd
}

func init() {
	definitionCmd.AddCommand(newDefinitionListCmd(), newDefinitionAddCmd())
	rootCmd.AddCommand(definitionCmd)
}
