package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tgcourse"

// SessionExt is appended to the session name to form the credential file.
const SessionExt = ".session"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/tgcourse or ~/.config/tgcourse
// - macOS: ~/Library/Application Support/tgcourse
// - Windows: %AppData%/tgcourse
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName()), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", AppName()), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, AppName()), nil
	}
}

// StateDir returns the app's state directory, the default home of the
// session file.
// - Linux: $XDG_STATE_HOME/tgcourse or ~/.local/state/tgcourse
// - macOS: ~/Library/Application Support/tgcourse/state
// - Windows: %LocalAppData%/tgcourse/state (fallback to ConfigDir/state)
func StateDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", AppName(), "state"), nil
	case "linux":
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName()), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "state", AppName()), nil
	default:
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return filepath.Join(la, AppName(), "state"), nil
		}
		cfg, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, "state"), nil
	}
}

// BaseDir resolves the directory holding the session file. An empty
// override means the state dir.
func BaseDir(override string) (string, error) {
	if override != "" {
		return filepath.Clean(override), nil
	}
	return StateDir()
}

// SessionPath returns <base>/<name>.session.
func SessionPath(base, name string) string {
	return filepath.Join(base, name+SessionExt)
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}
