package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"labelclean/internal/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(configFlag))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(configFlag))

	return configCmd
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set input_dir and reference_dir before running labelclean.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(flagValue(configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show the effective configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(flagValue(configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			rows := [][2]string{
				{"input_dir", cfg.Paths.InputDir},
				{"output_dir", cfg.Paths.OutputDir},
				{"log_dir", cfg.Paths.LogDir},
				{"reference_dir", cfg.Paths.ReferenceDir},
				{"batch_size", fmt.Sprintf("%d", cfg.Processing.BatchSize)},
				{"max_workers", fmt.Sprintf("%d", cfg.Processing.MaxWorkers)},
				{"fuzzy_threshold", fmt.Sprintf("%d", cfg.Matching.FuzzyThreshold)},
				{"partial_threshold", fmt.Sprintf("%d", cfg.Matching.PartialThreshold)},
				{"dosage_tolerance", fmt.Sprintf("%.2f", cfg.Matching.DosageTolerance)},
				{"skip_nutrition_facts", yesNo(cfg.Options.SkipNutritionFacts)},
				{"track_unmapped", yesNo(cfg.Options.TrackUnmapped)},
				{"multiline_records", yesNo(cfg.OutputFormat.MultilineRecords)},
				{"pretty_print", yesNo(cfg.OutputFormat.PrettyPrint)},
				{"log_format", cfg.Logging.Format},
				{"log_level", cfg.Logging.Level},
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderPairs("Setting", "Value", rows, false))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
