// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mockimagecache "github.com/netapp/nfs-imagecache/mocks/mock_storage_drivers/mock_ontap/mock_imagecache"
	mockexec "github.com/netapp/nfs-imagecache/mocks/mock_utils/mock_exec"
	"github.com/netapp/nfs-imagecache/pkg/locks"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
)

func newTestDeleter(t *testing.T, cfg *Config) (*ShellDeleter, *mockexec.MockCommand, *locks.GCNamedMutex) {
	t.Helper()
	ctrl := gomock.NewController(t)
	command := mockexec.NewMockCommand(ctrl)
	fileLocks := locks.NewGCNamedMutex()
	deleter := NewShellDeleter(command, afero.NewMemMapFs(), newMockShares(ctrl, shareA, shareB), fileLocks, cfg)
	return deleter, command, fileLocks
}

// writeAgedFile creates name on share with its access and modification times set ageMinutes before deleter.now.
func writeAgedFile(t *testing.T, deleter *ShellDeleter, share types.Share, name string, ageMinutes int) string {
	t.Helper()
	filePath := testMountPoint(share) + "/" + name
	require.NoError(t, deleter.fs.MkdirAll(testMountPoint(share), 0o755))
	require.NoError(t, afero.WriteFile(deleter.fs, filePath, []byte("image"), 0o644))
	touched := deleter.now().Add(-time.Duration(ageMinutes) * time.Minute)
	require.NoError(t, deleter.fs.Chtimes(filePath, touched, touched))
	return filePath
}

func TestShellDeleter_Delete(t *testing.T) {
	tests := []struct {
		name    string
		asRoot  bool
		rmErr   error
		deleted bool
	}{
		{name: "deleted", deleted: true},
		{name: "deleted as root", asRoot: true, deleted: true},
		{name: "file already gone", rmErr: mockexec.NewMockExitError(1, "No such file or directory")},
		{name: "permission denied", rmErr: mockexec.NewMockExitError(1, "Permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.ExecuteAsRoot = tt.asRoot
			deleter, command, fileLocks := newTestDeleter(t, cfg)

			filePath := testMountPoint(shareA) + "/img-cache-1"
			if tt.asRoot {
				command.EXPECT().ExecuteWithTimeout(gomock.Any(), cfg.RootHelper, cfg.CommandTimeout, true, "rm", filePath).
					Return(nil, tt.rmErr)
			} else {
				command.EXPECT().ExecuteWithTimeout(gomock.Any(), "rm", cfg.CommandTimeout, true, filePath).
					Return(nil, tt.rmErr)
			}

			assert.Equal(t, tt.deleted, deleter.Delete(context.Background(), shareA, "img-cache-1"))
			assert.Equal(t, 0, fileLocks.Len(), "file lock should be released")
		})
	}
}

func TestShellDeleter_ChecksAgeBeforeDelete(t *testing.T) {
	tests := []struct {
		name       string
		ageMinutes int
		deleted    bool
	}{
		{name: "still stale", ageMinutes: 800, deleted: true},
		{name: "exactly at expiry", ageMinutes: 60, deleted: true},
		{name: "accessed since scan", ageMinutes: 59},
		{name: "just used", ageMinutes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			deleter, command, fileLocks := newTestDeleter(t, cfg)
			deleter.now = func() time.Time { return cacheNow }

			filePath := writeAgedFile(t, deleter, shareA, "img-cache-1", tt.ageMinutes)
			if tt.deleted {
				command.EXPECT().ExecuteWithTimeout(gomock.Any(), "rm", cfg.CommandTimeout, true, filePath).
					Return(nil, nil)
			}

			assert.Equal(t, tt.deleted, deleter.Delete(context.Background(), shareA, "img-cache-1"))
			assert.Equal(t, 0, fileLocks.Len(), "file lock should be released")
		})
	}
}

func TestShellDeleter_KeepsFileClonedAfterScan(t *testing.T) {
	ctrl := gomock.NewController(t)
	cfg := testConfig()
	command := mockexec.NewMockCommand(ctrl)
	shares := newMockShares(ctrl, shareA)
	cloner := mockimagecache.NewMockFileCloner(ctrl)
	fileLocks := locks.NewGCNamedMutex()
	fs := afero.NewMemMapFs()

	deleter := NewShellDeleter(command, fs, shares, fileLocks, cfg)
	deleter.now = func() time.Time { return cacheNow }
	cache := NewImageCache(fs, shares, cloner, fileLocks, cfg)
	cache.now = func() time.Time { return cacheNow }

	// The scan saw the cache file as 800 minutes old.
	writeAgedFile(t, deleter, shareA, "img-cache-img1", 800)

	cloner.EXPECT().CloneFile(gomock.Any(), shareA, "img-cache-img1", "volume-1").Return(nil)
	_, ok := cache.CloneFromCache(context.Background(), "volume-1", "img1",
		[]CacheHit{{Share: shareA, FileName: "img-cache-img1"}}, nil)
	require.True(t, ok)

	// No rm is expected: the clone refreshed the file.
	assert.False(t, deleter.Delete(context.Background(), shareA, "img-cache-img1"))
}

func TestShellDeleter_RejectsInvalidNames(t *testing.T) {
	deleter, _, _ := newTestDeleter(t, testConfig())

	for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b"} {
		assert.False(t, deleter.Delete(context.Background(), shareA, name), name)
	}
}

func TestShellDeleter_SerializesSamePath(t *testing.T) {
	deleter, command, _ := newTestDeleter(t, testConfig())

	var inFlight, maxInFlight int32
	command.EXPECT().ExecuteWithTimeout(gomock.Any(), "rm", gomock.Any(), true, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ time.Duration, _ bool, _ ...string) ([]byte, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&maxInFlight)
				if n <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil, nil
		}).Times(4)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deleter.Delete(context.Background(), shareA, "img-cache-same")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestShellDeleter_DistinctPathsDoNotBlock(t *testing.T) {
	deleter, command, _ := newTestDeleter(t, testConfig())

	release := make(chan struct{})
	entered := make(chan string, 2)
	command.EXPECT().ExecuteWithTimeout(gomock.Any(), "rm", gomock.Any(), true, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ time.Duration, _ bool, args ...string) ([]byte, error) {
			entered <- args[0]
			<-release
			return nil, nil
		}).Times(2)

	var wg sync.WaitGroup
	for _, share := range []types.Share{shareA, shareB} {
		wg.Add(1)
		go func(share types.Share) {
			defer wg.Done()
			assert.True(t, deleter.Delete(context.Background(), share, "img-cache-1"))
		}(share)
	}

	// Both deletes reach rm while neither has returned.
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case p := <-entered:
			seen[p] = true
		case <-time.After(5 * time.Second):
			t.Fatal("delete on a different share was blocked")
		}
	}
	close(release)
	wg.Wait()

	assert.True(t, seen[testMountPoint(shareA)+"/img-cache-1"])
	assert.True(t, seen[testMountPoint(shareB)+"/img-cache-1"])
}

func TestFileLockKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	shares := newMockShares(ctrl)

	assert.Equal(t, testMountPoint(shareA)+"/img-cache-1", fileLockKey(shares, shareA, "img-cache-1"))
	assert.NotEqual(t, fileLockKey(shares, shareA, "img-cache-1"), fileLockKey(shares, shareB, "img-cache-1"))
}
