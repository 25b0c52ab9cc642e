package profiles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kadirbelkuyu/tabledef/internal/config"
	"github.com/kadirbelkuyu/tabledef/internal/fileio"
)

const defaultDir = "configs"

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// Profile is a saved connection config.
type Profile struct {
	Name     string
	Path     string
	Type     string
	Target   string
	Modified time.Time
}

// Manager keeps connection profiles as YAML files in one directory.
type Manager struct {
	dir string
	now func() time.Time
}

func NewManager(dir string) *Manager {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return &Manager{dir: dir, now: time.Now}
}

func (m *Manager) Directory() string {
	return m.dir
}

// List returns the readable profiles sorted by name, optionally limited to
// one database type. Files that fail to parse are skipped.
func (m *Manager) List(expectedType string) ([]Profile, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	var profiles []Profile
	for _, entry := range entries {
		if entry.IsDir() || !hasYAMLExt(entry.Name()) {
			continue
		}

		path := filepath.Join(m.dir, entry.Name())
		cfg, err := config.LoadConfig(path)
		if err != nil {
			continue
		}
		if expectedType != "" && cfg.Database.Type != expectedType {
			continue
		}

		var modified time.Time
		if info, err := entry.Info(); err == nil {
			modified = info.ModTime()
		}

		profiles = append(profiles, Profile{
			Name:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:     path,
			Type:     cfg.Database.Type,
			Target:   targetLabel(cfg),
			Modified: modified,
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, nil
}

// Save writes cfg under alias. An empty alias becomes <type>-<timestamp>.
func (m *Manager) Save(alias string, cfg *config.Config) (Profile, error) {
	if cfg == nil {
		return Profile{}, fmt.Errorf("config cannot be nil")
	}

	now := m.now()
	base := strings.TrimSpace(alias)
	if base == "" {
		base = fmt.Sprintf("%s-%s", cfg.Database.Type, now.Format("20060102_150405"))
	}
	if hasYAMLExt(base) {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = sanitizeName(base) + ".yaml"

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to encode profile: %w", err)
	}

	path := filepath.Join(m.dir, base)
	if err := fileio.WriteAtomic(path, data, 0o600); err != nil {
		return Profile{}, fmt.Errorf("failed to write profile: %w", err)
	}

	return Profile{
		Name:     strings.TrimSuffix(base, ".yaml"),
		Path:     path,
		Type:     cfg.Database.Type,
		Target:   targetLabel(cfg),
		Modified: now,
	}, nil
}

// Load reads a profile by alias or file path.
func (m *Manager) Load(alias string) (*config.Config, error) {
	path, err := m.resolve(alias)
	if err != nil {
		return nil, err
	}
	return config.LoadConfig(path)
}

func (m *Manager) Delete(alias string) error {
	path, err := m.resolve(alias)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("profile not found: %s", alias)
	}
	return os.Remove(path)
}

func (m *Manager) resolve(alias string) (string, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return "", fmt.Errorf("profile alias cannot be empty")
	}
	if strings.ContainsRune(alias, os.PathSeparator) {
		return alias, nil
	}
	if !hasYAMLExt(alias) {
		alias += ".yaml"
	}
	return filepath.Join(m.dir, alias), nil
}

func hasYAMLExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func sanitizeName(input string) string {
	cleaned := strings.Trim(fileNameSanitizer.ReplaceAllString(input, "_"), "_")
	if cleaned == "" {
		return "profile"
	}
	return cleaned
}

// targetLabel renders host:port/database for profile listings.
func targetLabel(cfg *config.Config) string {
	host := strings.TrimSpace(cfg.Database.Host)
	if host == "" {
		host = "localhost"
	}
	if cfg.Database.Port > 0 {
		host = fmt.Sprintf("%s:%d", host, cfg.Database.Port)
	}
	return host + "/" + cfg.Database.Database
}
