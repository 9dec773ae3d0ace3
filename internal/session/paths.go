package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.hangouts, or $HANGOUTS_HOME when set.
func BaseDir() string {
	if dir := os.Getenv("HANGOUTS_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".hangouts")
}

// Dir returns the per-user directory.
func Dir(user string) string {
	return filepath.Join(BaseDir(), "users", user)
}

// SocketPath returns the UDS socket path of a user's daemon.
func SocketPath(user string) string {
	return filepath.Join(Dir(user), "daemon.sock")
}

// LockPath returns the lock file path for a user.
func LockPath(user string) string {
	return filepath.Join(Dir(user), "LOCK")
}

// DBPath returns the user's hangouts.db path.
func DBPath(user string) string {
	return filepath.Join(Dir(user), "hangouts.db")
}

// LogDir returns the log directory for a user.
func LogDir(user string) string {
	return filepath.Join(Dir(user), "logs")
}

// LogPath returns the log file path of the given binary.
func LogPath(user, binary string) string {
	return filepath.Join(LogDir(user), binary+".log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the user directory tree with proper permissions.
func EnsureDir(user string) error {
	dirs := []string{
		Dir(user),
		LogDir(user),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
