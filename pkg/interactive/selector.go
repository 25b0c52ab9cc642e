package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kadirbelkuyu/tabledef/internal/document"
)

// TableSelector asks the user to pick tables and export options on a
// line-oriented terminal.
type TableSelector struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewTableSelector() *TableSelector {
	return NewTableSelectorWithIO(bufio.NewReader(os.Stdin), os.Stdout)
}

// NewTableSelectorWithIO shares reader with the caller so buffered input is
// not split between two readers.
func NewTableSelectorWithIO(reader *bufio.Reader, out io.Writer) *TableSelector {
	return &TableSelector{reader: reader, out: out}
}

type ExportOptions struct {
	Format    document.Format
	Path      string
	CoverPage bool
}

func (ts *TableSelector) printTables(names []string) {
	fmt.Fprintln(ts.out)
	fmt.Fprintln(ts.out, "Selected tables:")
	fmt.Fprintln(ts.out, strings.Repeat("=", 48))
	fmt.Fprintf(ts.out, "%-4s %-40s\n", "No", "Table")
	fmt.Fprintln(ts.out, strings.Repeat("-", 48))
	for i, name := range names {
		fmt.Fprintf(ts.out, "%-4d %-40s\n", i+1, name)
	}
	fmt.Fprintln(ts.out, strings.Repeat("=", 48))
}

// SelectTable returns one name from names.
func (ts *TableSelector) SelectTable(names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no tables selected")
	}

	ts.printTables(names)

	for {
		fmt.Fprintf(ts.out, "\nSelect the table number (1-%d): ", len(names))

		input, err := ts.readLine()
		if err != nil {
			return "", err
		}
		if input == "" {
			fmt.Fprintln(ts.out, "Please enter a number.")
			continue
		}

		choice, err := strconv.Atoi(input)
		if err != nil {
			fmt.Fprintln(ts.out, "Please enter a valid number.")
			continue
		}
		if choice < 1 || choice > len(names) {
			fmt.Fprintf(ts.out, "Please select a number between 1 and %d.\n", len(names))
			continue
		}

		return names[choice-1], nil
	}
}

// SelectTables accepts a comma separated list of numbers or "all".
func (ts *TableSelector) SelectTables(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no tables selected")
	}

	ts.printTables(names)

	for {
		fmt.Fprintf(ts.out, "\nTable numbers, comma separated, or 'all' (1-%d): ", len(names))

		input, err := ts.readLine()
		if err != nil {
			return nil, err
		}
		if input == "" {
			fmt.Fprintln(ts.out, "Please enter at least one number.")
			continue
		}
		if strings.EqualFold(input, "all") {
			return append([]string(nil), names...), nil
		}

		picked, err := parseChoices(input, len(names))
		if err != nil {
			fmt.Fprintf(ts.out, "Invalid choice: %v.\n", err)
			continue
		}

		selected := make([]string, 0, len(picked))
		for _, idx := range picked {
			selected = append(selected, names[idx])
		}
		return selected, nil
	}
}

func (ts *TableSelector) ConfirmAction(action, target string) bool {
	fmt.Fprintf(ts.out, "\nConfirm %s for %s (y/N): ", action, target)

	input, err := ts.readLine()
	if err != nil {
		return false
	}

	input = strings.ToLower(input)
	return input == "y" || input == "yes"
}

// GetExportOptions asks for a format, an output path and whether to include
// the index. defaultDir is where the dated default file name is placed.
func (ts *TableSelector) GetExportOptions(defaultDir string, defaultName func(document.Format) string, cover bool) ExportOptions {
	options := ExportOptions{Format: document.FormatSpreadsheet, CoverPage: cover}

	fmt.Fprintln(ts.out)
	fmt.Fprintln(ts.out, "Export format:")
	fmt.Fprintln(ts.out, "1. Spreadsheet (.xlsx)")
	fmt.Fprintln(ts.out, "2. Web page (.html)")
	fmt.Fprintln(ts.out, "3. Markdown (.md)")

	for {
		fmt.Fprint(ts.out, "\nSelect format (1-3) [1]: ")
		input, _ := ts.readLine()
		if input == "" {
			input = "1"
		}

		switch input {
		case "1":
			options.Format = document.FormatSpreadsheet
		case "2":
			options.Format = document.FormatHypertext
		case "3":
			options.Format = document.FormatMarkdown
		default:
			fmt.Fprintln(ts.out, "Please choose a value between 1 and 3.")
			continue
		}
		break
	}

	fallback := filepath.Join(defaultDir, defaultName(options.Format))
	fmt.Fprintf(ts.out, "Output path [%s]: ", fallback)
	path, _ := ts.readLine()
	if path == "" {
		path = fallback
	}
	options.Path = path

	defaultCover := "Y/n"
	if !cover {
		defaultCover = "y/N"
	}
	fmt.Fprintf(ts.out, "Include the index page? (%s): ", defaultCover)
	coverInput, _ := ts.readLine()
	switch strings.ToLower(coverInput) {
	case "y", "yes":
		options.CoverPage = true
	case "n", "no":
		options.CoverPage = false
	}

	return options
}

func (ts *TableSelector) readLine() (string, error) {
	input, err := ts.reader.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", fmt.Errorf("unable to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func parseChoices(input string, max int) ([]int, error) {
	seen := make(map[int]bool)
	var picked []int

	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		choice, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		if choice < 1 || choice > max {
			return nil, fmt.Errorf("numbers must be between 1 and %d", max)
		}
		if !seen[choice-1] {
			seen[choice-1] = true
			picked = append(picked, choice-1)
		}
	}

	if len(picked) == 0 {
		return nil, fmt.Errorf("enter at least one number")
	}
	sort.Ints(picked)
	return picked, nil
}
