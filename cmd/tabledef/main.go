package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/kadirbelkuyu/tabledef/internal/app"
	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/document"
	apperrors "github.com/kadirbelkuyu/tabledef/internal/errors"
	"github.com/kadirbelkuyu/tabledef/internal/ui/browser"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
)

const appName = "Table Definition Generator"

const asciiBanner = `
 _        _     _          _       __ 
| |_ __ _| |__ | | ___  __| | ___ / _|
| __/ _' | '_ \| |/ _ \/ _' |/ _ \ |_ 
| || (_| | |_) | |  __/ (_| |  __/  _|
 \__\__,_|_.__/|_|\___|\__,_|\___|_|  
`

var rootCmd = &cobra.Command{
	Use:   "tabledef",
	Short: "Generate table definition documents from PostgreSQL or SQL Server",
	Long:  `Pick tables, annotate them with remarks and export their column definitions as a spreadsheet, web page or Markdown file.`,
	RunE:  runInteractive,
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Launch the guided interactive workflow",
	RunE:  runInteractive,
}

var showCmd = &cobra.Command{
	Use:   "show TABLE...",
	Short: "Print table definitions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export [TABLE...]",
	Short: "Export table definitions to a document",
	RunE:  runExport,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the database connection",
	RunE:  runCheck,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Build a selection in the terminal UI",
	RunE:  runBrowse,
}

var (
	configPath    string
	profileDir    string
	selectionPath string
	outputPath    string
	formatName    string
	noCover       bool
	verbose       bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the database configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")

	rootCmd.Flags().StringVar(&profileDir, "profiles", "configs", "Directory of saved connection profiles")
	interactiveCmd.Flags().StringVar(&profileDir, "profiles", "configs", "Directory of saved connection profiles")

	exportCmd.Flags().StringVar(&selectionPath, "selection", "", "Selection file listing the tables to export")
	exportCmd.Flags().StringVar(&outputPath, "output", "", "Output file (default table-definitions_YYYYMMDD.<ext> in document.output_dir)")
	exportCmd.Flags().StringVar(&formatName, "format", "", "Document format: xlsx, html or md (default from the output extension)")
	exportCmd.Flags().BoolVar(&noCover, "no-cover", false, "Leave out the index page")

	browseCmd.Flags().StringVar(&selectionPath, "selection", "", "Selection file to open")

	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(browseCmd)

	cobra.OnInitialize(func() {
		rootCmd.SilenceUsage = true
		rootCmd.SilenceErrors = true
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		for _, suggestion := range appErr.Suggestions {
			fmt.Fprintf(os.Stderr, "  - %s\n", suggestion)
		}
	}
}

func loadConfig() (*config.Config, error) {
	if strings.TrimSpace(configPath) == "" {
		return nil, apperrors.New(apperrors.ErrTypeConfig, "a config file is required").
			WithSuggestion("Pass --config path/to/tabledef.yaml")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}
	return cfg, nil
}

func runInteractive(cmd *cobra.Command, args []string) error {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	application := app.NewApplication(os.Stdin, os.Stdout, printBanner, logger.NewLogger(verbose)).
		WithProfileDir(profileDir).
		WithBrowser(browser.Run)
	return application.RunInteractive(cmd.Context(), cfg)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return app.NewService(logger.NewLogger(verbose)).Show(cmd.Context(), cfg, args)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var format document.Format
	if strings.TrimSpace(formatName) != "" {
		format, err = document.ParseFormat(formatName)
		if err != nil {
			return err
		}
	}

	return app.NewService(logger.NewLogger(verbose)).Export(cmd.Context(), cfg, app.ExportOptions{
		SelectionPath: selectionPath,
		Names:         args,
		Format:        format,
		OutputPath:    outputPath,
		CoverPage:     cfg.CoverPageEnabled() && !noCover,
	})
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return app.NewService(logger.NewLogger(verbose)).Check(cmd.Context(), cfg)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return app.NewService(logger.NewLogger(verbose)).Browse(cmd.Context(), cfg, selectionPath, browser.Run)
}

func printBanner() {
	fmt.Print(asciiBanner)
	fmt.Println(appName)
	fmt.Println(strings.Repeat("-", len(appName)))
}
