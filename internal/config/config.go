// Package config loads and stores persistent user settings from a plain
// key=value file under the XDG config directory.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Config keys.
const (
	KeyOutputDir     = "output-dir"     // directory for transcript files
	KeyEngine        = "engine"         // "whisper" or "openai"
	KeyModel         = "model"          // model path or identifier
	KeyChunkDuration = "chunk-duration" // Go duration string, e.g. "5m"
)

// Engine names accepted for KeyEngine.
const (
	EngineWhisper = "whisper"
	EngineOpenAI  = "openai"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "TRANSCRIBE_OUTPUT_DIR"
	EnvModel     = "TRANSCRIBE_MODEL"
)

// ErrUnknownKey indicates a key outside the supported set.
var ErrUnknownKey = errors.New("unknown config key")

// appDir names the subdirectory under the XDG config root.
const appDir = "transcribe"

// Config holds user configuration with file values taking precedence over
// environment fallbacks and zero values meaning "use the built-in default".
type Config struct {
	OutputDir     string
	Engine        string
	Model         string
	ChunkDuration time.Duration
}

// Keys returns the supported config keys in display order.
func Keys() []string {
	return []string{KeyOutputDir, KeyEngine, KeyModel, KeyChunkDuration}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/transcribe.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appDir), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns a zero Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.OutputDir = data[KeyOutputDir]
	cfg.Engine = data[KeyEngine]
	cfg.Model = data[KeyModel]
	if raw := data[KeyChunkDuration]; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q: %w", KeyChunkDuration, raw, err)
		}
		cfg.ChunkDuration = d
	}

	// Environment fallbacks for values absent from the file.
	if cfg.OutputDir == "" {
		cfg.OutputDir = os.Getenv(EnvOutputDir)
	}
	if cfg.Model == "" {
		cfg.Model = os.Getenv(EnvModel)
	}

	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Validate checks that value is acceptable for key. Used by `config set`
// before anything is written.
func Validate(key, value string) error {
	switch key {
	case KeyOutputDir:
		return validOutputDir(value)
	case KeyEngine:
		if value != EngineWhisper && value != EngineOpenAI {
			return fmt.Errorf("engine must be %q or %q, got %q", EngineWhisper, EngineOpenAI, value)
		}
		return nil
	case KeyModel:
		if value == "" {
			return errors.New("model cannot be empty")
		}
		return nil
	case KeyChunkDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("chunk-duration must be a duration like 5m: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("chunk-duration must be positive, got %v", d)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Save validates and writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file in key order.
func writeFile(p string, data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, k := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", k, data[k]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ResolveOutputPath resolves the final transcript path:
//  1. An absolute output path is used as-is.
//  2. A relative output path joins outputDir when one is set.
//  3. An empty output uses defaultName in outputDir (or cwd without one).
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// validOutputDir checks that d can serve as the transcript output directory,
// creating it when missing.
func validOutputDir(d string) error {
	if d == "" {
		return errors.New("output-dir cannot be empty")
	}

	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", d)
	}

	// Verify writability by creating and removing a probe file.
	probe := filepath.Join(d, ".transcribe-write-test")
	f, err := os.Create(probe) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("directory is not writable: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(probe)
		return fmt.Errorf("directory is not writable: %w", err)
	}
	_ = os.Remove(probe)

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
