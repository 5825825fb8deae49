package main

import (
	"fmt"

	"github.com/goliatone/go-authflow/config"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and message catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd)
		},
	}
}

func runValidate(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	catalog, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	if missing := catalog.Missing(requiredCatalogKeys...); len(missing) > 0 {
		return fmt.Errorf("catalog is missing %v", missing)
	}

	cmd.Printf("configuration OK (%d catalog keys)\n", len(catalog.Keys()))
	return nil
}
