package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
	Long: `Settings live in config.toml under the baratazo home directory
(~/.baratazo, or $BARATAZO_HOME when set).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting with its current value",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Change a setting",
	Example: "  baratazo config set crawl.postal_code 46001\n  baratazo config set crawl.scroll_pause 500ms",
	Args:    cobra.ExactArgs(2),
	RunE:    runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	for _, key := range settingsService.Keys() {
		value := settingsService.Value(settings, key)
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("%-26s %s\n", key, value)
	}
	if err := settings.Validate(); err != nil {
		cmd.Printf("\nWarning: %v\n", err)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if _, err := loadSettings(); err != nil {
		return err
	}
	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to reload settings: %w", err)
	}
	cmd.Printf("%s = %s\n", key, settingsService.Value(settings, key))
	return nil
}
