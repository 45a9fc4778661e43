package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// CatalogNames are the file names probed when no catalog path is given,
// in order of preference.
var CatalogNames = []string{
	"catalog.msgpack",
	"catalog.db",
	"catalog.json",
	"catalog.yaml",
	"catalog.yml",
}

// PathResolver finds the catalog and the state dir relative to the binary,
// the working directory and the user config dir.
type PathResolver struct {
	executableDir string
	homeDir       string
	configDir     string
}

// NewPathResolver creates a resolver for the running executable.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executableDir: filepath.Dir(execPath),
		homeDir:       homeDir,
		configDir:     getConfigDir(homeDir),
	}
	log.Debugf("PathResolver initialized: execDir=%s, configDir=%s", pr.executableDir, pr.configDir)
	return pr, nil
}

// getConfigDir returns the appropriate config directory for the platform
func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, "shelfserve")
		}
		return filepath.Join(homeDir, ".config", "shelfserve")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "shelfserve")
		}
		return filepath.Join(homeDir, "AppData", "Roaming", "shelfserve")
	default:
		return filepath.Join(homeDir, ".config", "shelfserve")
	}
}

// ConfigDir returns the per-user config directory.
func (pr *PathResolver) ConfigDir() string {
	return pr.configDir
}

// FindCatalog resolves the catalog file. An explicit path wins when it
// exists; otherwise the data dirs next to the binary, under the working
// directory and under the config dir are probed for CatalogNames.
func (pr *PathResolver) FindCatalog(userPath string) (string, error) {
	if userPath != "" {
		for _, p := range pr.candidates(userPath) {
			if isFile(p) {
				return p, nil
			}
		}
	}

	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, filepath.Join(cwd, "data"))
	}
	dirs = append(dirs,
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
	if path, ok := FindFileInDirs(dirs, CatalogNames); ok {
		log.Debugf("Found catalog: %s", path)
		return path, nil
	}
	return "", os.ErrNotExist
}

func (pr *PathResolver) candidates(userPath string) []string {
	if filepath.IsAbs(userPath) {
		return []string{userPath}
	}
	out := []string{}
	if cwd, err := os.Getwd(); err == nil {
		out = append(out, filepath.Join(cwd, userPath))
	}
	return append(out, filepath.Join(pr.executableDir, userPath))
}

// FindFileInDirs returns the first dir/name that is a regular file,
// trying every name in a dir before moving on.
func FindFileInDirs(dirs, names []string) (string, bool) {
	for _, dir := range dirs {
		for _, name := range names {
			p := filepath.Join(dir, name)
			if isFile(p) {
				return p, true
			}
		}
	}
	return "", false
}

func isFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Mode().IsRegular()
}
