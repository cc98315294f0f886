package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/vesmapper/internal/core/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the VES catalog",
}

var catalogLoadCmd = &cobra.Command{
	Use:   "load FILE",
	Short: "Load a YAML catalog file into the catalog database",
	Long:  `Replaces the stored event types of every version listed in FILE. Versions not in FILE are left untouched.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogLoad,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the versions and event types of the configured catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogLoadCmd, catalogListCmd)
}

func runCatalogLoad(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	if env.cfg.Catalog.DatabaseURL == "" {
		return fmt.Errorf("--db-url required")
	}

	file, err := catalog.NewFileProvider(args[0])
	if err != nil {
		return err
	}
	entries, err := file.AvailableVersionsAndEventTypes(cmd.Context())
	if err != nil {
		return err
	}

	store, err := catalog.OpenSQLProvider(env.cfg.Catalog.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Replace(cmd.Context(), entries); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	env.logger.Info("catalog loaded", "file", file.Path(), "versions", len(entries))
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	provider, closeCatalog, err := env.openCatalog(true)
	if err != nil {
		return err
	}
	defer closeCatalog()

	c, err := provider.AvailableVersionsAndEventTypes(cmd.Context())
	if err != nil {
		return err
	}
	for _, version := range c.Versions() {
		for _, et := range c.EventTypes(version) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", version, et)
		}
	}
	return nil
}
