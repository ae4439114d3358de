package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	relerrors "github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// LocalStore implements Store over a local directory tree laid out the
// way the trail bucket is. Used for local development and testing.
type LocalStore struct {
	root           string
	accountID      string
	logPrefix      string
	expirationDays int
}

// NewLocalStore creates a local store rooted at root. expirationDays
// stands in for the bucket lifecycle configuration; zero means no
// retention policy.
func NewLocalStore(root, accountID, logPrefix string, expirationDays int) *LocalStore {
	return &LocalStore{
		root:           root,
		accountID:      accountID,
		logPrefix:      logPrefix,
		expirationDays: expirationDays,
	}
}

// ListRegions lists the directories one level below the trail prefix.
// A root without the trail tree yet reads as no regions.
func (s *LocalStore) ListRegions(ctx context.Context) ([]string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(TrailPrefix(s.logPrefix, s.accountID)))

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, relerrors.NewStorageError(relerrors.CodeRegionListFailed,
			fmt.Sprintf("failed to list regions under %s", dir), err)
	}

	var regions []string
	for _, entry := range entries {
		if entry.IsDir() {
			regions = append(regions, entry.Name())
		}
	}
	return regions, nil
}

// RetentionPolicy returns the configured expiration, or nil when none
// was set.
func (s *LocalStore) RetentionPolicy(ctx context.Context) (*types.RetentionPolicy, error) {
	if s.expirationDays <= 0 {
		return nil, nil
	}
	return &types.RetentionPolicy{ExpirationDays: s.expirationDays}, nil
}
