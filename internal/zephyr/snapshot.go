package zephyr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devices-agents/agentboard/internal/catalog"
)

// DefaultConcurrency bounds parallel per-folder test fetches.
const DefaultConcurrency = 4

// SnapshotOptions selects the folder tree to snapshot.
type SnapshotOptions struct {
	Project        string
	RootFolderID   int
	RootFolderName string
	Concurrency    int
	// Now stamps the snapshot; defaults to time.Now.
	Now func() time.Time
}

// FetchCatalog lists the root's child folders and their tests. Folder order
// is preserved regardless of which fetch finishes first; the first error
// cancels the rest.
func FetchCatalog(ctx context.Context, client *Client, opts SnapshotOptions) (*catalog.Catalog, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	slog.Info("fetching folders", "project", opts.Project, "root", opts.RootFolderID)
	folders, err := client.ChildFolders(ctx, opts.Project, opts.RootFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	slog.Info("found folders", "count", len(folders))

	result := make([]catalog.Folder, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, f := range folders {
		g.Go(func() error {
			slog.Debug("fetching tests", "folder", f.Name)
			cases, err := client.TestCases(gctx, opts.Project, f.ID)
			if err != nil {
				return fmt.Errorf("failed to list tests in %q: %w", f.Name, err)
			}
			tests := make([]catalog.Test, 0, len(cases))
			for _, tc := range cases {
				tests = append(tests, catalog.Test{Key: tc.Key, Name: tc.Name, FolderID: f.ID, Status: tc.Status})
			}
			result[i] = catalog.Folder{ID: f.ID, Name: f.Name, Tests: tests}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &catalog.Catalog{
		RootFolderID:   fmt.Sprint(opts.RootFolderID),
		RootFolderName: opts.RootFolderName,
		GeneratedAt:    opts.Now().UTC(),
		Folders:        result,
	}, nil
}
