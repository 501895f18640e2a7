package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// setting is a configuration key that config get/set accepts.
type setting struct {
	key   string
	parse func(string) (any, error)
}

var settings = []setting{
	{key: "db", parse: func(s string) (any, error) { return s, nil }},
	{key: "strict", parse: parseSwitch},
	{key: "verbose", parse: parseSwitch},
	{key: "workers", parse: parseWorkers},
}

func lookupSetting(key string) (setting, error) {
	i := slices.IndexFunc(settings, func(s setting) bool { return s.key == key })
	if i < 0 {
		keys := make([]string, len(settings))
		for j, s := range settings {
			keys[j] = s.key
		}
		return setting{}, &usageError{err: fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(keys, ", "))}
	}
	return settings[i], nil
}

func parseSwitch(s string) (any, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return nil, fmt.Errorf("expected true or false, got %q", s)
}

func parseWorkers(s string) (any, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("expected a non-negative worker count, got %q", s)
	}
	return n, nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-bedpe configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.vibe-bedpe.yaml.
Known keys: db, strict, verbose, workers.`,
		Example: `  vibe-bedpe config                   # show all settings
  vibe-bedpe config set workers 8     # use 8 normalization workers
  vibe-bedpe config set strict true   # abort on the first bad row
  vibe-bedpe config get db            # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

// runConfigShow prints the effective value of every known setting, including
// values that come from flags or VIBE_BEDPE_* variables.
func runConfigShow(cmd *cobra.Command) error {
	values := make(map[string]any, len(settings))
	for _, s := range settings {
		values[s.key] = viper.Get(s.key)
	}

	out, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	w := cmd.OutOrStdout()
	if f := viper.ConfigFileUsed(); f != "" {
		fmt.Fprintf(w, "# %s\n", f)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	s, err := lookupSetting(key)
	if err != nil {
		return err
	}
	v, err := s.parse(value)
	if err != nil {
		return &usageError{err: fmt.Errorf("config %s: %w", key, err)}
	}
	viper.Set(key, v)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		if cfgFile, err = defaultConfigFile(); err != nil {
			return err
		}
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v in %s\n", key, v, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	if _, err := lookupSetting(key); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), viper.Get(key))
	return nil
}
