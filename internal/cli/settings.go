package cli

import (
	"fmt"
	"sort"

	"github.com/dgallion1/layername/internal/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or change stored settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSettingsGet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE:  runSettingsSet,
	})
	return cmd
}

func openSettings() (*settings.SQLite, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return settings.OpenSQLite(cfg.SettingsPath)
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	store, err := openSettings()
	if err != nil {
		return err
	}
	defer store.Close()

	vals, err := store.All(cmd.Context())
	if err != nil {
		return err
	}
	vals = settings.Redacted(vals)

	if len(args) == 1 {
		v, ok := vals[args[0]]
		if !ok {
			return fmt.Errorf("setting %q is not set", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	}

	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, vals[k])
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if !settings.IsKnown(key) {
		return fmt.Errorf("unknown setting %q (known: %v)", key, settings.Keys)
	}
	store, err := openSettings()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Set(cmd.Context(), key, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", key)
	return nil
}
