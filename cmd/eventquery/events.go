package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/charlesjhongc/evm-event-parser/internal/config"
	"github.com/charlesjhongc/evm-event-parser/internal/schema"
)

func runEvents(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEvents(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.ABIPath, cfg.Preset)
	if err != nil {
		return err
	}

	for _, def := range catalog {
		fmt.Println(formatEvent(def))
	}

	return nil
}

func formatEvent(def schema.EventDefinition) string {
	params := make([]string, 0, len(def.Parameters))
	for _, p := range def.Parameters {
		piece := p.Type
		if p.Indexed {
			piece += " indexed"
		}
		params = append(params, piece+" "+p.Name)
	}
	return fmt.Sprintf("%s(%s)", def.Name, strings.Join(params, ", "))
}
