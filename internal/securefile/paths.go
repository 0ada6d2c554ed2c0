// Package securefile stores the daemon's local state as JSON files with
// restricted permissions and atomic replacement. Sealed files are
// additionally encrypted under a password.
package securefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
)

// EnvFolder maps NFT_CHECKOUT_ENV to a config subfolder. Production uses
// no subfolder.
func EnvFolder() (string, error) {
	raw := strings.TrimSpace(os.Getenv(constants.EnvFolderVar))
	switch strings.ToLower(raw) {
	case "", "prod", "production":
		return "", nil
	case "local":
		return "local", nil
	case "dev", "develop", "development":
		return "develop", nil
	default:
		return "", fmt.Errorf("invalid %s %q (allowed: local, develop, empty)", constants.EnvFolderVar, raw)
	}
}

// ConfigPathCandidates returns the locations filename may live at, most
// preferred first: $SNAP_REAL_HOME/.config, $HOME/.config, then
// os.UserConfigDir.
func ConfigPathCandidates(app, filename string) ([]string, error) {
	envFolder, err := EnvFolder()
	if err != nil {
		return nil, err
	}
	if app == "" {
		return nil, errors.New("app must not be empty")
	}
	if filename == "" {
		return nil, errors.New("filename must not be empty")
	}

	var paths []string
	seen := map[string]bool{}
	add := func(dir string) {
		if envFolder != "" {
			dir = filepath.Join(dir, envFolder)
		}
		p := filepath.Join(dir, filename)
		if seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	for _, home := range []string{os.Getenv("SNAP_REAL_HOME"), os.Getenv("HOME")} {
		if home != "" {
			add(filepath.Join(home, ".config", app))
		}
	}

	if dir, err := os.UserConfigDir(); err == nil {
		add(filepath.Join(dir, app))
	} else if len(paths) == 0 {
		return nil, fmt.Errorf("UserConfigDir: %w", err)
	}

	return paths, nil
}

// ResolvePath picks the first existing candidate, else the first one.
func ResolvePath(app, filename string) (string, error) {
	cands, err := ConfigPathCandidates(app, filename)
	if err != nil {
		return "", err
	}
	for _, p := range cands {
		if Exists(p) {
			return p, nil
		}
	}
	return cands[0], nil
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
