package workflows

import (
	"context"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	"github.com/PolarWolf314/sopsmith/internal/store"
)

// Save saves the session and records it in the audit log. paths lists the
// entries the caller changed, for the log only.
func Save(ctx context.Context, session *store.Session, op string, paths []string) (*store.SaveResult, error) {
	result, err := session.Save(ctx)
	if err != nil {
		return nil, err
	}

	entry := audit.New(op)
	entry.File = result.Path
	entry.Format = session.Format().String()
	entry.Paths = paths
	entry.Count = result.Entries
	audit.Log(entry)

	return result, nil
}
