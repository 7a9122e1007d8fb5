package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/MediaWatch/internal/setup"
)

// newInitCmd returns the "init" subcommand with the interactive setup wizard.
func newInitCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Long: "Run an interactive wizard that asks for the media server and Telegram\n" +
			"details and writes the configuration file.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(overwrite)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite an existing configuration file")

	return cmd
}

func runInit(overwrite bool) error {
	if _, err := os.Stat(configPath); err == nil && !overwrite {
		return fmt.Errorf("%s already exists, pass --overwrite to replace it", configPath)
	}

	p := tea.NewProgram(setup.NewWizardModel(), tea.WithAltScreen())

	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}

	model, ok := result.(setup.WizardModel)
	if !ok {
		return fmt.Errorf("unexpected model type from wizard")
	}

	if model.Aborted() {
		fmt.Println(styleDim.Render("Setup canceled."))
		return nil
	}
	if !model.Done() {
		return nil
	}

	cfg := model.Config()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate configuration: %w", err)
	}
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("write configuration: %w", err)
	}

	fmt.Println(styleSuccess.Render("Configuration written to " + configPath))
	fmt.Println()
	fmt.Println(styleDim.Render("Next steps:"))
	fmt.Println(styleDim.Render("  1. Review " + configPath))
	fmt.Println(styleDim.Render("  2. Run: mediawatch bot"))

	return nil
}
