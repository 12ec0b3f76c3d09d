package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	appName      = "mangasync"
	defaultLabel = "Default"
	profileExt   = ".yaml"
)

var ErrNoConfig = errors.New("no config selected")

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, appName)
	}

	// Linux/macOS XDG
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

// ConfigPathByLabel returns the file of a profile. The file may not exist.
func ConfigPathByLabel(label string) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}

	return filepath.Join(ConfigsDir(), label+profileExt), nil
}

func checkLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return errors.Newf("label %q must not contain path separators", label)
	}

	return nil
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if err != nil {
		return "", err
	}
	if label == "" {
		return "", ErrNoConfig
	}

	return ConfigPathByLabel(label)
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	activeLabel, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, profileExt) {
			continue
		}

		label := strings.TrimSuffix(name, profileExt)
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == activeLabel,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// CreateConfig writes a new profile with default values.
func CreateConfig(label string) (string, error) {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return "", errors.Newf("a config named %q already exists", label)
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", errors.Wrap(err, "failed to save YAML")
	}

	return path, nil
}

func SwitchConfig(label string) error {
	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	if _, err := os.Stat(path); err != nil {
		return errors.Newf("config %q does not exist", label)
	}

	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

func RenameConfig(oldLabel, newLabel string) error {
	oldPath, err := ConfigPathByLabel(oldLabel)
	if err != nil {
		return err
	}
	newPath, err := ConfigPathByLabel(newLabel)
	if err != nil {
		return err
	}

	if _, err := os.Stat(oldPath); err != nil {
		return errors.Newf("config %q does not exist", oldLabel)
	}
	if _, err := os.Stat(newPath); err == nil {
		return errors.Newf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return os.WriteFile(CurrentLabelFile(), []byte(newLabel), 0644)
	}

	return nil
}

func RemoveConfig(label string) error {
	if label == defaultLabel {
		return errors.Newf("cannot remove the %s config", defaultLabel)
	}

	path, err := ConfigPathByLabel(label)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Newf("config %q does not exist", label)
	}

	if active, _ := CurrentLabel(); active == label {
		if err := SwitchConfig(defaultLabel); err != nil {
			return errors.Wrapf(err, "failed switching to %s", defaultLabel)
		}
		fmt.Println("Fallback switched to:", defaultLabel)
	}

	return os.Remove(path)
}

// InitDefaultConfig creates and activates the Default profile. It returns
// os.ErrExist (with the path) when the profile is already there.
func InitDefaultConfig() (string, error) {
	path, err := CreateConfig(defaultLabel)
	if err != nil {
		existing, _ := ConfigPathByLabel(defaultLabel)
		if _, statErr := os.Stat(existing); statErr == nil {
			return existing, os.ErrExist
		}
		return "", err
	}

	return path, SwitchConfig(defaultLabel)
}
