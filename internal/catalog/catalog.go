// Package catalog reads and writes the pre-generated test-case catalog: a
// JSON snapshot of the test-management folders under one root folder.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/devices-agents/agentboard/internal/tree"
)

var (
	// ErrNotFound means no catalog file exists at the path.
	ErrNotFound = errors.New("test catalog not found")
	// ErrMalformed means the file exists but is not a valid catalog.
	ErrMalformed = errors.New("test catalog is malformed")
)

// DefaultFileName is used when no catalog path is configured.
const DefaultFileName = "zephyr-tests.json"

// Catalog is the on-disk snapshot.
type Catalog struct {
	RootFolderID   string    `json:"rootFolderId"`
	RootFolderName string    `json:"rootFolderName"`
	GeneratedAt    time.Time `json:"generatedAt"`
	Folders        []Folder  `json:"folders"`
}

// Folder is one direct child of the root folder.
type Folder struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Tests []Test `json:"tests"`
}

// Test is one test case.
type Test struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	FolderID int    `json:"folderId"`
	Status   string `json:"status"`
}

// Load reads the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if c.Folders == nil {
		return nil, fmt.Errorf("%w: missing folders", ErrMalformed)
	}
	return &c, nil
}

// Save writes the catalog to path, creating parent directories.
func (c *Catalog) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	return nil
}

// TotalTests counts tests across all folders.
func (c *Catalog) TotalTests() int {
	n := 0
	for _, f := range c.Folders {
		n += len(f.Tests)
	}
	return n
}

// Leaves flattens the catalog into tree input: the folder id is the path
// segment, the folder name its label and the test key the identifier.
func (c *Catalog) Leaves() []tree.Leaf {
	var sources []tree.Source
	for _, f := range c.Folders {
		for _, t := range f.Tests {
			sources = append(sources, tree.CatalogLeaf{
				FolderID:   fmt.Sprint(f.ID),
				FolderName: f.Name,
				Key:        t.Key,
				Name:       t.Name,
				Status:     t.Status,
			})
		}
	}
	return tree.Normalize(sources)
}

// TreeFolders lists every catalog folder for the tree, so folders without
// tests still show up.
func (c *Catalog) TreeFolders() []tree.Folder {
	folders := make([]tree.Folder, 0, len(c.Folders))
	for _, f := range c.Folders {
		folders = append(folders, tree.CatalogFolder{ID: fmt.Sprint(f.ID), Name: f.Name}.Folder())
	}
	return folders
}
