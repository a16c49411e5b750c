package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/latifnjimoluh/veille/internal/collect"
	"github.com/latifnjimoluh/veille/internal/config"
	"github.com/latifnjimoluh/veille/internal/fetch"
	"github.com/latifnjimoluh/veille/internal/llm"
	"github.com/latifnjimoluh/veille/internal/mailer"
	"github.com/latifnjimoluh/veille/internal/notion"
	"github.com/latifnjimoluh/veille/internal/pipeline"
	"github.com/latifnjimoluh/veille/internal/schema"
	"github.com/latifnjimoluh/veille/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "veille",
	Short:   "Notion tech-watch digests by email",
	Long:    "veille polls Notion watch databases, summarizes new entries with an LLM, and emails HTML digests.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetFlags(log.LstdFlags | log.Lshortfile)
		} else {
			log.SetFlags(log.LstdFlags)
		}

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(collectCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("veille", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/veille/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, secrets, and the SMTP relay.")
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		notionClient := newNotionClient()
		return server.Serve(notionClient, newPipeline(notionClient), cfg.Server.Port)
	},
}

var runCmd = &cobra.Command{
	Use:   "run <variant> <databaseID> <recipient>",
	Short: "Run one digest pipeline and email the result",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, ok := schema.ByName(args[0])
		if !ok {
			return fmt.Errorf("unknown variant %q (techno, tech, radar)", args[0])
		}

		notionClient := newNotionClient()
		result, err := newPipeline(notionClient).Run(cmd.Context(), variant, args[1], args[2])
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		if result.Sent {
			fmt.Printf("  Articles: %d\n", len(result.Items))
			if result.PatchFailures > 0 {
				fmt.Printf("  Failed status writes: %d\n", result.PatchFailures)
			}
		}
		return nil
	},
}

var collectDaysBack int

var collectCmd = &cobra.Command{
	Use:   "collect <variant> <databaseID>",
	Short: "Import feed entries into a watch database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		variant, ok := schema.ByName(args[0])
		if !ok {
			return fmt.Errorf("unknown variant %q (techno, tech, radar)", args[0])
		}

		feeds := make([]collect.Feed, len(cfg.Feeds))
		for i, f := range cfg.Feeds {
			feeds[i] = collect.Feed{URL: f.URL, Name: f.Name}
		}

		collector := collect.NewCollector(newNotionClient(), feeds, variant, collectDaysBack)
		result, err := collector.Collect(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		fmt.Printf("Found %d entries: %d created, %d duplicates, %d errors\n",
			result.TotalFound, result.Created, result.Duplicates, result.Errors)
		return nil
	},
}

func init() {
	collectCmd.Flags().IntVar(&collectDaysBack, "days", 3, "How many days back to collect")
}

func newNotionClient() *notion.Client {
	return notion.NewClient(cfg.Notion.BaseURL, cfg.NotionToken(), cfg.Notion.Version)
}

func newPipeline(notionClient *notion.Client) *pipeline.Pipeline {
	ai := cfg.AI
	provider := llm.CreateProvider(ai.Provider, ai.Model, ai.APIKeyEnv, ai.OpenAIModel, ai.OpenAIAPIKeyEnv)

	user, pass := cfg.MailCredentials()
	sender := mailer.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, user, pass)

	var fetcher *fetch.ContentFetcher
	if cfg.Fetch.Enabled {
		fetcher = fetch.NewContentFetcher(time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second)
	}

	return pipeline.New(notionClient, provider, sender, fetcher, cfg.MailFrom(), ai.MaxTokens)
}
