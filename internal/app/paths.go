package app

import (
	"os"
	"path/filepath"
)

// Dir is the per-project state directory.
const Dir = ".decipher"

// Paths holds all resolved filesystem paths for the .decipher/ directory.
// All fields are pre-computed strings.
type Paths struct {
	Root   string // .decipher/
	DB     string // .decipher/decipher.db
	Status string // .decipher/status.json
	Config string // .decipher/config.yaml
}

// NewPaths constructs all resolved paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, Dir)
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "decipher.db"),
		Status: filepath.Join(root, "status.json"),
		Config: filepath.Join(root, ConfigFile),
	}
}

// EnsureDirs creates .decipher/. Idempotent.
func (p *Paths) EnsureDirs() error {
	return os.MkdirAll(p.Root, 0755)
}
