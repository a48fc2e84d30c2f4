// Package deploy decides, once at startup, where the corpus file and widget
// assets live for the environment the process runs in.
package deploy

import (
	"fmt"
	"os"
	"path/filepath"
)

// Strategy is a deployment environment.
type Strategy string

const (
	Local   Strategy = "local"
	Managed Strategy = "managed"
)

const (
	corpusRel = "data/articles.json"
	assetsRel = "web/dist"
)

// managedMarkers are environment variables set by managed hosting platforms.
var managedMarkers = []string{"AWS_LAMBDA_FUNCTION_NAME", "VERCEL", "K_SERVICE"}

// Detect picks Managed when a hosting platform marker is set, Local otherwise.
func Detect(getenv func(string) string) Strategy {
	for _, key := range managedMarkers {
		if getenv(key) != "" {
			return Managed
		}
	}
	return Local
}

// Parse maps a configured deployment name to a strategy. "auto" defers to
// Detect.
func Parse(name string, getenv func(string) string) (Strategy, error) {
	switch name {
	case "", "auto":
		return Detect(getenv), nil
	case string(Local):
		return Local, nil
	case string(Managed):
		return Managed, nil
	default:
		return "", fmt.Errorf("unknown deployment %q (want auto, local or managed)", name)
	}
}

// Paths are the resolved locations a deployment reads from.
type Paths struct {
	Root   string
	Corpus string
	Assets string
}

// Resolve returns the paths for s. Candidate roots are probed in order:
// for Local the working directory, for Managed the platform task root,
// /var/task and then the working directory. The first root holding the
// corpus file wins; without one the first candidate is used as is.
func (s Strategy) Resolve(getenv func(string) string) Paths {
	candidates := s.roots(getenv)
	for _, root := range candidates {
		if _, err := os.Stat(filepath.Join(root, corpusRel)); err == nil {
			return pathsUnder(root)
		}
	}
	return pathsUnder(candidates[0])
}

func (s Strategy) roots(getenv func(string) string) []string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	if s != Managed {
		return []string{cwd}
	}

	var roots []string
	if root := getenv("LAMBDA_TASK_ROOT"); root != "" {
		roots = append(roots, root)
	}
	return append(roots, "/var/task", cwd)
}

func pathsUnder(root string) Paths {
	return Paths{
		Root:   root,
		Corpus: filepath.Join(root, corpusRel),
		Assets: filepath.Join(root, assetsRel),
	}
}
