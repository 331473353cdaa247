package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kalambet/shtym/internal/config"
	"github.com/kalambet/shtym/internal/history"
	"github.com/kalambet/shtym/internal/profile"
)

// --- profiles ---

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect transformation profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := profile.Load(config.ProfilesPaths()...)

		names := store.Names()
		if len(names) == 0 {
			fmt.Println("No profiles found.")
			return nil
		}

		for _, name := range names {
			p, err := store.Get(name)
			if err != nil {
				continue
			}
			fmt.Printf("%s  %s\n", colorize(colorBold, p.Name), p.Kind)
		}
		return nil
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a single profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := profile.Load(config.ProfilesPaths()...)

		p, err := store.Get(args[0])
		if err != nil {
			return err
		}

		printStatus("Name", "%s", p.Name)
		printStatus("Kind", "%s", p.Kind)
		printStatus("Schema version", "%d", p.SchemaVersion)
		if p.Kind == profile.KindLLM {
			printStatus("Model", "%s", p.ModelName)
			printStatus("Server", "%s", p.ServerURL)
			if p.SystemPromptTemplate != "" {
				printStatus("System prompt", "%s", p.SystemPromptTemplate)
			}
			if p.UserPromptTemplate != "" {
				printStatus("User prompt", "%s", p.UserPromptTemplate)
			}
		}
		return nil
	},
}

func init() {
	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesShowCmd)
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded invocations",
}

func openHistory() (*history.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return history.Open(cfg.Storage.DataDir)
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent invocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(limit, 0)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No invocations recorded.")
			return nil
		}

		for _, r := range records {
			command := r.Command
			if len(command) > 60 {
				command = command[:60] + "..."
			}
			profileName := r.Profile
			if profileName == "" {
				profileName = "-"
			}
			fmt.Printf("%s  %s  exit=%d  %s  %s\n",
				colorize(colorCyan, r.ID[:8]),
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.ExitCode,
				profileName,
				command,
			)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single invocation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("invocation %q: %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

var historyPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all recorded invocations",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete ALL recorded invocations. Use --confirm to proceed.")
			return nil
		}

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Purge()
		if err != nil {
			return err
		}
		printSuccess("Purged %d invocations", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of invocations to list")
	historyPurgeCmd.Flags().Bool("confirm", false, "confirm purge")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPurgeCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
