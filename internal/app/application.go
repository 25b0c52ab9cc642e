package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/database"
	"github.com/kadirbelkuyu/tabledef/internal/document"
	"github.com/kadirbelkuyu/tabledef/internal/profiles"
	"github.com/kadirbelkuyu/tabledef/internal/schema"
	"github.com/kadirbelkuyu/tabledef/internal/selection"
	"github.com/kadirbelkuyu/tabledef/pkg/interactive"
	"github.com/kadirbelkuyu/tabledef/pkg/logger"
)

const defaultConfigDir = "configs"

// BrowseFunc opens the terminal UI over a session.
type BrowseFunc func(ctx context.Context, session *Session, cfg *config.Config) error

type Application struct {
	reader         *bufio.Reader
	out            io.Writer
	printBanner    func()
	profileManager *profiles.Manager
	logger         *logger.Logger
	connect        Connector
	browse         BrowseFunc
	selector       *interactive.TableSelector
}

func NewApplication(r io.Reader, out io.Writer, printBanner func(), log *logger.Logger) *Application {
	if r == nil {
		r = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	var reader *bufio.Reader
	if br, ok := r.(*bufio.Reader); ok {
		reader = br
	} else {
		reader = bufio.NewReader(r)
	}

	return &Application{
		reader:         reader,
		out:            out,
		printBanner:    printBanner,
		profileManager: profiles.NewManager(defaultConfigDir),
		logger:         log,
		connect:        database.NewConnection,
		selector:       interactive.NewTableSelectorWithIO(reader, out),
	}
}

// WithBrowser enables the terminal UI menu entry.
func (a *Application) WithBrowser(fn BrowseFunc) *Application {
	a.browse = fn
	return a
}

// WithProfileDir points profile discovery at dir.
func (a *Application) WithProfileDir(dir string) *Application {
	a.profileManager = profiles.NewManager(dir)
	return a
}

// RunInteractive asks for a connection and then serves the table menu
// until the user exits. When cfg is non-nil no connection prompt is shown.
func (a *Application) RunInteractive(ctx context.Context, cfg *config.Config) error {
	if a.printBanner != nil {
		a.printBanner()
	}

	if cfg == nil {
		var err error
		cfg, err = a.loadOrPromptConfig()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.sayGoodbye()
				return nil
			}
			return err
		}
	}

	conn, err := a.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	session := NewSession(schema.NewService(conn, cfg, a.logger), a.logger)
	fmt.Fprintf(a.out, "Connected to %s (%s). Choose option 0 or press Ctrl+C to exit.\n", formatServerLabel(cfg), cfg.Database.Type)

	return a.runMenu(ctx, session, cfg)
}

func (a *Application) runMenu(ctx context.Context, session *Session, cfg *config.Config) error {
	for {
		fmt.Fprintln(a.out)
		fmt.Fprintf(a.out, "Select an operation (%d tables selected):\n", session.Selection().Len())
		fmt.Fprintln(a.out, "  1) Search a table")
		fmt.Fprintln(a.out, "  2) List selected tables")
		fmt.Fprintln(a.out, "  3) Show a selected table")
		fmt.Fprintln(a.out, "  4) Remove selected tables")
		fmt.Fprintln(a.out, "  5) Save selection")
		fmt.Fprintln(a.out, "  6) Load selection")
		fmt.Fprintln(a.out, "  7) Export document")
		if a.browse != nil {
			fmt.Fprintln(a.out, "  8) Browse in the terminal UI")
		}
		fmt.Fprintln(a.out, "  0) Exit")

		fmt.Fprint(a.out, "\nChoice: ")
		choice, err := a.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.sayGoodbye()
				return nil
			}
			return err
		}

		var handler func() error
		switch strings.ToLower(choice) {
		case "1", "search":
			handler = func() error { return a.handleSearch(ctx, session) }
		case "2", "list":
			handler = func() error { return a.handleList(session) }
		case "3", "show":
			handler = func() error { return a.handleShow(session) }
		case "4", "remove":
			handler = func() error { return a.handleRemove(session) }
		case "5", "save":
			handler = func() error { return a.handleSave(session) }
		case "6", "load":
			handler = func() error { return a.handleLoad(ctx, session) }
		case "7", "export":
			handler = func() error { return a.handleExport(session, cfg) }
		case "8", "browse":
			if a.browse == nil {
				fmt.Fprintln(a.out, "Invalid selection. Try again.")
				continue
			}
			handler = func() error { return a.browse(ctx, session, cfg) }
		case "0", "exit", "quit", "q":
			a.sayGoodbye()
			return nil
		default:
			fmt.Fprintln(a.out, "Invalid selection. Try again.")
			continue
		}

		if err := handler(); err != nil {
			if errors.Is(err, io.EOF) {
				a.sayGoodbye()
				return nil
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
	}
}

func (a *Application) handleSearch(ctx context.Context, session *Session) error {
	raw, err := a.promptString("Table name", true)
	if err != nil {
		return err
	}

	found, err := session.Search(ctx, raw)
	if err != nil {
		if errors.Is(err, ErrTableNotFound) {
			fmt.Fprintf(a.out, "No table named %s was found.\n", session.NormalizeName(raw))
			return nil
		}
		return err
	}

	printDefinition(a.out, found.Definition)

	question := "Add this table to the selection?"
	if found.InSelection {
		question = "Already selected. Update its remark?"
	}
	add, err := a.promptYesNo(question, !found.InSelection)
	if err != nil || !add {
		return err
	}

	remark, err := a.promptRemark(found.Definition.Remark)
	if err != nil {
		return err
	}

	session.Add(found.Definition, remark)
	fmt.Fprintf(a.out, "%s added. %d tables selected.\n", found.Definition.Name, session.Selection().Len())
	return nil
}

func (a *Application) handleList(session *Session) error {
	names := session.Selection().Names()
	if len(names) == 0 {
		fmt.Fprintln(a.out, "No tables selected.")
		return nil
	}

	fmt.Fprintln(a.out)
	for i, def := range session.Selection().Tables() {
		line := fmt.Sprintf("%3d. %s", i+1, def.Name)
		if def.Description != "" {
			line += " - " + def.Description
		}
		if def.Remark != "" {
			line += " [remark]"
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *Application) handleShow(session *Session) error {
	name, err := a.selector.SelectTable(session.Selection().Names())
	if err != nil {
		return err
	}

	def, err := session.Reopen(name)
	if err != nil {
		return err
	}
	printDefinition(a.out, def)
	return nil
}

func (a *Application) handleRemove(session *Session) error {
	names, err := a.selector.SelectTables(session.Selection().Names())
	if err != nil {
		return err
	}

	target := strings.Join(names, ", ")
	if len(names) > 3 {
		target = fmt.Sprintf("%d tables", len(names))
	}
	if !a.selector.ConfirmAction("removal", target) {
		fmt.Fprintln(a.out, "Operation cancelled.")
		return nil
	}

	removed := session.Remove(names...)
	fmt.Fprintf(a.out, "Removed %d tables. %d remain.\n", removed, session.Selection().Len())
	return nil
}

func (a *Application) handleSave(session *Session) error {
	path, err := a.promptStringWithDefault("Selection file", selection.DefaultFileName)
	if err != nil {
		return err
	}
	if err := session.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %d tables to %s.\n", session.Selection().Len(), path)
	return nil
}

func (a *Application) handleLoad(ctx context.Context, session *Session) error {
	path, err := a.promptStringWithDefault("Selection file", selection.DefaultFileName)
	if err != nil {
		return err
	}

	if session.Selection().Len() > 0 {
		replace, err := a.promptYesNo(fmt.Sprintf("Replace the %d selected tables?", session.Selection().Len()), true)
		if err != nil || !replace {
			return err
		}
	}

	result, err := session.Load(ctx, path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Loaded %d tables.\n", result.Loaded)
	if len(result.Missing) > 0 {
		fmt.Fprintf(a.out, "Not found: %s\n", strings.Join(result.Missing, ", "))
	}
	return nil
}

func (a *Application) handleExport(session *Session, cfg *config.Config) error {
	if session.Selection().Len() == 0 {
		fmt.Fprintln(a.out, "No tables selected.")
		return nil
	}

	opts := a.selector.GetExportOptions(cfg.Document.OutputDir, func(f document.Format) string {
		return document.DefaultFileName(f, session.now())
	}, cfg.CoverPageEnabled())

	meta, err := session.Export(ExportRequest{
		Format:    opts.Format,
		Path:      opts.Path,
		CoverPage: opts.CoverPage,
		Title:     cfg.DocumentTitle(),
	})
	if err != nil {
		return err
	}

	printMetadata(a.out, "Export completed successfully.", session.Selection().Len(), meta)
	return nil
}

// promptRemark reads one line; a literal \n becomes a line break.
func (a *Application) promptRemark(current string) (string, error) {
	label := `Remark (\n for a line break, blank for none)`
	if current != "" {
		label = `Remark (\n for a line break, blank keeps the current one, "-" clears it)`
	}

	input, err := a.promptString(label, false)
	if err != nil {
		return "", err
	}

	switch input {
	case "":
		return current, nil
	case "-":
		return "", nil
	}
	return strings.ReplaceAll(input, `\n`, "\n"), nil
}

func (a *Application) sayGoodbye() {
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Exiting interactive mode.")
}

func (a *Application) promptString(label string, required bool) (string, error) {
	for {
		fmt.Fprintf(a.out, "%s: ", label)
		input, err := a.readLine()
		if err != nil {
			return "", err
		}
		if input == "" && required {
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}
		return input, nil
	}
}

func (a *Application) promptYesNo(question string, defaultValue bool) (bool, error) {
	suffix := "(y/N)"
	if defaultValue {
		suffix = "(Y/n)"
	}

	for {
		fmt.Fprintf(a.out, "%s %s ", question, suffix)
		input, err := a.readLine()
		if err != nil {
			return false, err
		}

		if input == "" {
			return defaultValue, nil
		}

		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(a.out, "Please answer with y or n.")
		}
	}
}

func (a *Application) promptInt(question string, defaultValue int) (int, error) {
	for {
		fmt.Fprintf(a.out, "%s [%d]: ", question, defaultValue)
		input, err := a.readLine()
		if err != nil {
			return 0, err
		}

		if input == "" {
			return defaultValue, nil
		}

		value, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(a.out, "Please enter a valid number.")
			continue
		}

		return value, nil
	}
}

func (a *Application) promptStringWithDefault(label, defaultValue string) (string, error) {
	for {
		if defaultValue != "" {
			fmt.Fprintf(a.out, "%s [%s]: ", label, defaultValue)
		} else {
			fmt.Fprintf(a.out, "%s: ", label)
		}

		input, err := a.readLine()
		if err != nil {
			return "", err
		}

		if input == "" {
			if defaultValue != "" {
				return defaultValue, nil
			}
			fmt.Fprintln(a.out, "Please provide a value.")
			continue
		}

		return input, nil
	}
}

func (a *Application) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *Application) loadOrPromptConfig() (*config.Config, error) {
	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Configure the database connection")

		if cfg, ok, err := a.selectProfile(); err != nil {
			return nil, err
		} else if ok {
			return cfg, nil
		}

		dbType, err := a.promptDatabaseType()
		if err != nil {
			return nil, err
		}

		cfg, err := a.promptManualConfig(dbType)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Error: %v\n", err)
			continue
		}

		if err := a.persistConfig(cfg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, err
			}
			fmt.Fprintf(a.out, "Warning: failed to save config: %v\n", err)
		}

		return cfg, nil
	}
}

func (a *Application) promptManualConfig(dbType string) (*config.Config, error) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Type: dbType,
		},
	}

	defaultPort, defaultDB, defaultSchema := 5432, "postgres", "public"
	engine := "PostgreSQL"
	if dbType == config.TypeSQLServer {
		defaultPort, defaultDB, defaultSchema = 1433, "master", "dbo"
		engine = "SQL Server"
	}

	fmt.Fprintf(a.out, "\nEnter %s connection details:\n", engine)

	host, err := a.promptStringWithDefault("Host", "localhost")
	if err != nil {
		return nil, err
	}
	port, err := a.promptInt("Port", defaultPort)
	if err != nil {
		return nil, err
	}
	dbName, err := a.promptStringWithDefault("Database name", defaultDB)
	if err != nil {
		return nil, err
	}
	schemaName, err := a.promptStringWithDefault("Schema", defaultSchema)
	if err != nil {
		return nil, err
	}
	username, err := a.promptString("Username (leave blank for none)", false)
	if err != nil {
		return nil, err
	}
	password, err := a.promptString("Password (leave blank for none)", false)
	if err != nil {
		return nil, err
	}

	cfg.Database.Host = host
	cfg.Database.Port = port
	cfg.Database.Database = dbName
	cfg.Database.Schema = schemaName
	cfg.Database.Username = username
	cfg.Database.Password = password

	if dbType == config.TypePostgres {
		sslMode, err := a.promptStringWithDefault("SSL mode", "disable")
		if err != nil {
			return nil, err
		}
		cfg.Database.SSLMode = sslMode
	}

	if err := cfg.Complete(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *Application) promptDatabaseType() (string, error) {
	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Select database type:")
		fmt.Fprintln(a.out, "1. PostgreSQL")
		fmt.Fprintln(a.out, "2. SQL Server")
		fmt.Fprint(a.out, "Selection: ")

		input, err := a.readLine()
		if err != nil {
			return "", err
		}

		switch strings.ToLower(input) {
		case "1", "postgres", "postgresql":
			return config.TypePostgres, nil
		case "2", "sqlserver", "mssql":
			return config.TypeSQLServer, nil
		default:
			fmt.Fprintln(a.out, "Please choose 1 or 2.")
		}
	}
}

func (a *Application) selectProfile() (*config.Config, bool, error) {
	profiles, err := a.profileManager.List("")
	if err != nil {
		return nil, false, err
	}

	if len(profiles) == 0 {
		return nil, false, nil
	}

	for {
		fmt.Fprintln(a.out, "Saved configurations:")
		for i, profile := range profiles {
			fmt.Fprintf(a.out, "  %d) %s (%s, %s)\n", i+1, profile.Name, profile.Type, profile.Target)
		}
		fmt.Fprintln(a.out, "  n) Create a new configuration")

		choice, err := a.promptString("Select a configuration (number) or 'n'", true)
		if err != nil {
			return nil, false, err
		}

		choice = strings.ToLower(choice)
		if choice == "n" || choice == "new" {
			return nil, false, nil
		}

		index, err := strconv.Atoi(choice)
		if err != nil || index < 1 || index > len(profiles) {
			fmt.Fprintln(a.out, "Please choose a valid option.")
			continue
		}

		cfg, err := config.LoadConfig(profiles[index-1].Path)
		if err != nil {
			fmt.Fprintf(a.out, "Failed to load %s: %v\n", profiles[index-1].Name, err)
			continue
		}

		return cfg, true, nil
	}
}

func (a *Application) persistConfig(cfg *config.Config) error {
	save, err := a.promptYesNo("Save this configuration for future use?", true)
	if err != nil || !save {
		return err
	}

	defaultName := fmt.Sprintf("%s-%s_%s", cfg.Database.Type, cfg.Database.Host, time.Now().Format("20060102_150405"))
	name, err := a.promptStringWithDefault("Configuration name", defaultName)
	if err != nil {
		return err
	}

	profile, err := a.profileManager.Save(name, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved configuration to %s.\n", profile.Path)
	return nil
}
