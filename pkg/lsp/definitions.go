package lsp

import (
	"sync"

	"github.com/sourcegraph/go-lsp"

	"typeinfo/pkg/ast"
)

// Definition represents a definition in the code
type Definition struct {
	Name     string
	Location lsp.Location
	Kind     string // "parameter" or "variable"
}

// DefinitionManager maps name reads to the binding they see, per file.
// References come from the resolver, so they follow its scoping.
type DefinitionManager struct {
	mu          sync.RWMutex
	definitions map[string]map[*ast.Name]Definition // file -> reference -> definition
}

// NewDefinitionManager creates a new definition manager
func NewDefinitionManager() *DefinitionManager {
	return &DefinitionManager{
		definitions: make(map[string]map[*ast.Name]Definition),
	}
}

// AddReference records that ref reads the value bound at site.
func (dm *DefinitionManager) AddReference(file string, ref, site *ast.Name) {
	if !site.Pos().IsValid() {
		return
	}
	kind := "variable"
	if site.Ctx == ast.Param {
		kind = "parameter"
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if _, ok := dm.definitions[file]; !ok {
		dm.definitions[file] = make(map[*ast.Name]Definition)
	}
	dm.definitions[file][ref] = Definition{
		Name:     site.ID,
		Location: lsp.Location{URI: lsp.DocumentURI(file), Range: nodeRange(site)},
		Kind:     kind,
	}
}

// GetDefinition returns the binding seen by ref.
func (dm *DefinitionManager) GetDefinition(file string, ref *ast.Name) (Definition, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	def, ok := dm.definitions[file][ref]
	return def, ok
}

func (dm *DefinitionManager) Forget(file string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.definitions, file)
}
