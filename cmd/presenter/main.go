package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/everstacklabs/presenter/internal/cache"
	"github.com/everstacklabs/presenter/internal/catalog"
	"github.com/everstacklabs/presenter/internal/config"
	"github.com/everstacklabs/presenter/internal/diff"
	"github.com/everstacklabs/presenter/internal/httpclient"
	"github.com/everstacklabs/presenter/internal/pipeline"
	"github.com/everstacklabs/presenter/internal/presentation"
	"github.com/everstacklabs/presenter/internal/source"
	filesource "github.com/everstacklabs/presenter/internal/source/file"
	"github.com/everstacklabs/presenter/internal/source/pollinations"
	"github.com/everstacklabs/presenter/internal/validate"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "presenter",
		Short: "Model presentation catalog tool",
		Long:  "Normalizes model listings into presentation records and keeps a model catalog in sync.",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(
		normalizeCmd(),
		listCmd(),
		diffCmd(),
		syncCmd(),
		validateCmd(),
		cacheCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(pipeline.ExitFailure)
	}
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [json]",
		Short: "Normalize a raw model record (argument or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 1 {
				text = args[0]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				text = string(data)
			}

			in := presentation.Absent()
			if strings.TrimSpace(text) != "" {
				in = presentation.Text(text)
			}

			m, err := presentation.Normalize(in)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			out, err := encode(m, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)

			if withLabel, _ := cmd.Flags().GetBool("label"); withLabel {
				fmt.Fprintln(cmd.OutOrStdout(), m.Label())
			}
			return nil
		},
	}

	cmd.Flags().String("format", "yaml", "Output format: yaml or json")
	cmd.Flags().Bool("label", false, "Also print the display label")

	return cmd
}

func encode(m presentation.ModelPresentation, format string) (string, error) {
	switch format {
	case "yaml":
		data, err := yaml.Marshal(m)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return string(data), nil
	case "json":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print model labels, marking the default selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var models []presentation.ModelPresentation
			if fromSources, _ := cmd.Flags().GetBool("sources"); fromSources {
				configureSources(cfg)
				models, err = pipeline.New(cfg).Fetch(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				cat, err := catalog.Load(cfg.CatalogPath)
				if err != nil {
					return fmt.Errorf("loading catalog: %w", err)
				}
				models = cat.All()
			}

			printList(cmd.OutOrStdout(), models)
			return nil
		},
	}

	cmd.Flags().Bool("sources", false, "List the configured sources instead of the catalog")

	return cmd
}

// printList writes one label per model, marking the default selection with "*".
func printList(out io.Writer, models []presentation.ModelPresentation) {
	def := presentation.DefaultIndex(models)
	for i, m := range models {
		marker := " "
		if i == def {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, m.Label())
	}
	fmt.Fprintf(out, "\nTotal: %d models\n", len(models))
}

func diffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show what would change (no writes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			configureSources(cfg)

			p := pipeline.New(cfg)
			changesets, err := p.Diff(cmd.Context())
			if err != nil {
				return err
			}

			hasChanges := false
			for _, cs := range changesets {
				if !cs.HasChanges() {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), diff.RenderSummary(cs))
				hasChanges = true
			}

			if hasChanges {
				os.Exit(pipeline.ExitChanges)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Full pipeline: fetch → diff → validate → write → PR",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
				cfg.DryRun = true
			}
			if providers, _ := cmd.Flags().GetStringSlice("providers"); len(providers) > 0 {
				cfg.Providers = providers
			}

			configureSources(cfg)

			p := pipeline.New(cfg)
			result, err := p.Sync(cmd.Context())
			if err != nil {
				return err
			}

			switch {
			case result.Skipped:
				slog.Info("sync skipped", "reason", result.SkipReason, "draft", result.PRDraft)
				for _, cs := range result.ChangeSets {
					if cs.HasChanges() {
						fmt.Fprintln(cmd.OutOrStdout(), diff.RenderSummary(cs))
					}
				}
			case result.PRNumber > 0:
				slog.Info("PR created", "pr", result.PRNumber, "url", result.PRURL, "draft", result.PRDraft)
			default:
				slog.Info("sync complete",
					"version", result.Version,
					"written", result.Written,
					"removed", result.Removed)
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Show what would change without writing")
	cmd.Flags().StringSlice("providers", nil, "Providers to sync (default: all)")

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate existing catalog (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogPath, _ := cmd.Flags().GetString("catalog-path")
			if catalogPath == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				catalogPath = cfg.CatalogPath
			}

			cat, err := catalog.Load(catalogPath)
			if err != nil {
				return fmt.Errorf("loading catalog: %w", err)
			}

			result := validate.ValidateCatalog(cat)
			fmt.Fprintln(cmd.OutOrStdout(), validate.FormatResult(result))

			if result.HasErrors() {
				os.Exit(pipeline.ExitFailure)
			}
			return nil
		},
	}

	cmd.Flags().String("catalog-path", "", "Path to model catalog (default: from config)")

	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete all cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fc, err := cache.New(cfg.CacheDir, 0)
			if err != nil {
				return err
			}
			n, err := fc.Purge()
			if err != nil {
				return fmt.Errorf("purging cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses from %s\n", n, fc.Dir())
			return nil
		},
	})

	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func configureSources(cfg *config.Config) {
	var fileCache *cache.FileCache
	if !cfg.NoCache {
		ttl, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			ttl = time.Hour
		}
		fc, err := cache.New(cfg.CacheDir, ttl)
		if err != nil {
			slog.Warn("failed to create cache, continuing without", "error", err)
		} else {
			fileCache = fc
		}
	}

	opts := []httpclient.Option{
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithUserAgent(cfg.UserAgent),
	}
	if fileCache != nil {
		opts = append(opts, httpclient.WithCache(fileCache))
	}
	if cfg.NoCache {
		opts = append(opts, httpclient.WithNoCache())
	}
	client := httpclient.New(opts...)

	if s, err := source.Get("pollinations"); err == nil {
		if ps, ok := s.(*pollinations.Pollinations); ok {
			ps.Configure(cfg.Pollinations.BaseURL, client)
		}
	}

	if s, err := source.Get("file"); err == nil {
		if fsrc, ok := s.(*filesource.File); ok {
			fsrc.Configure(cfg.File.Path)
		}
	}
}
