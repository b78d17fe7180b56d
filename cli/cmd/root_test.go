// Copyright 2025 NetApp, Inc. All Rights Reserved.

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	. "github.com/netapp/nfs-imagecache/logging"
	mockworkerpool "github.com/netapp/nfs-imagecache/mocks/mock_pkg/mock_workerpool"
	mockimagecache "github.com/netapp/nfs-imagecache/mocks/mock_storage_drivers/mock_ontap/mock_imagecache"
	mockexec "github.com/netapp/nfs-imagecache/mocks/mock_utils/mock_exec"
	"github.com/netapp/nfs-imagecache/pkg/capacity"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/errors"
)

const gib = int64(capacity.OneGiB)

var (
	shareA = types.Share{Host: "10.0.0.1", Path: "/vol_a"}
	shareB = types.Share{Host: "10.0.0.2", Path: "/vol_b"}
)

func TestMain(m *testing.M) {
	// Disable any standard log output
	InitLogOutput(io.Discard)
	os.Exit(m.Run())
}

// cliFixture stands in for the storage behind the commands.  files lists what find reports on each share; the same
// files exist in fs.
type cliFixture struct {
	shares  *mockimagecache.MockShareProvider
	probe   *mockimagecache.MockCapacityProbe
	cloner  *mockimagecache.MockFileCloner
	command *mockexec.MockCommand
	fs      afero.Fs
	files   map[string][]types.CacheFile
	removed []string
}

func newCLIFixture(t *testing.T, shares ...types.Share) *cliFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &cliFixture{
		shares:  mockimagecache.NewMockShareProvider(ctrl),
		probe:   mockimagecache.NewMockCapacityProbe(ctrl),
		cloner:  mockimagecache.NewMockFileCloner(ctrl),
		command: mockexec.NewMockCommand(ctrl),
		fs:      afero.NewMemMapFs(),
		files:   make(map[string][]types.CacheFile),
	}
	f.shares.EXPECT().MountedShares(gomock.Any()).Return(shares, nil).AnyTimes()
	f.shares.EXPECT().MountPoint(gomock.Any()).DoAndReturn(func(share types.Share) string {
		return "/mnt/" + strings.TrimPrefix(share.Path, "/")
	}).AnyTimes()
	f.command.EXPECT().ExecuteWithTimeout(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(f.execute).AnyTimes()

	pool := mockworkerpool.NewMockPool(ctrl)

	previous := newManager
	newManager = func(ctx context.Context, cfg *imagecache.Config) (*imagecache.Manager, error) {
		return imagecache.NewManager(ctx, cfg,
			imagecache.WithShareProvider(f.shares),
			imagecache.WithCapacityProbe(f.probe),
			imagecache.WithFileCloner(f.cloner),
			imagecache.WithCommand(f.command),
			imagecache.WithFs(f.fs),
			imagecache.WithPool(pool),
		)
	}
	t.Cleanup(func() {
		newManager = previous
		OutputFormat = ""
		ConfigPath = ""
		planTarget = ""
		lookupSize, lookupThin = "", false
		cloneSize, cloneThin = "", false
	})
	return f
}

func (f *cliFixture) execute(
	_ context.Context, name string, _ time.Duration, _ bool, args ...string,
) ([]byte, error) {
	if name == imagecache.DefaultRootHelper {
		name, args = args[0], args[1:]
	}
	switch name {
	case "find":
		var out strings.Builder
		now := time.Now()
		for _, file := range f.files[args[0]] {
			atime := now.Add(-time.Duration(file.AgeMinutes) * time.Minute)
			fmt.Fprintf(&out, "%s\t%d\t%d\n", file.Name, file.SizeBytes, atime.Unix())
		}
		return []byte(out.String()), nil
	case "rm":
		f.removed = append(f.removed, args[0])
		return nil, f.fs.Remove(args[0])
	default:
		return nil, fmt.Errorf("unexpected command %s", name)
	}
}

func (f *cliFixture) addFile(mountPoint, name string, size int64, ageMinutes int64) {
	f.files[mountPoint] = append(f.files[mountPoint], types.CacheFile{Name: name, SizeBytes: size, AgeMinutes: ageMinutes})
	f.writeFile(mountPoint, name, ageMinutes)
}

// writeFile creates name under mountPoint in fs, last touched ageMinutes ago.
func (f *cliFixture) writeFile(mountPoint, name string, ageMinutes int64) {
	filePath := path.Join(mountPoint, name)
	touched := time.Now().Add(-time.Duration(ageMinutes) * time.Minute)
	if err := afero.WriteFile(f.fs, filePath, []byte(name), 0o644); err != nil {
		panic(err)
	}
	if err := f.fs.Chtimes(filePath, touched, touched); err != nil {
		panic(err)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(io.Discard)
	RootCmd.SetArgs(args)
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGetExitCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitCodeSuccess},
		{name: "failure", err: errors.New("boom"), want: ExitCodeFailure},
		{name: "config", err: errors.ConfigError("bad threshold"), want: ExitCodeConfigError},
		{name: "wrapped config", err: errors.WrapConfigError(errors.New("bad yaml")), want: ExitCodeConfigError},
		{name: "state", err: errors.NewStateError("Running", "busy"), want: ExitCodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCodeFromError(tt.err))

			SetExitCodeFromError(tt.err)
			assert.Equal(t, tt.want, ExitCode)
		})
	}
	ExitCode = ExitCodeSuccess
}

func TestValidateOutputFormat(t *testing.T) {
	defer func() { OutputFormat = "" }()

	for _, format := range []string{"", FormatTable, FormatJSON, FormatYAML, FormatName} {
		OutputFormat = format
		assert.NoError(t, validateOutputFormat(), format)
	}

	OutputFormat = "wide"
	assert.Error(t, validateOutputFormat())
}

func TestWriteJSONAndYAML(t *testing.T) {
	value := struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}{Name: "img-cache-a", Count: 2}

	var jsonOut bytes.Buffer
	require.NoError(t, WriteJSON(&jsonOut, value))
	assert.JSONEq(t, `{"name":"img-cache-a","count":2}`, jsonOut.String())

	var yamlOut bytes.Buffer
	require.NoError(t, WriteYAML(&yamlOut, value))
	assert.Equal(t, "count: 2\nname: img-cache-a\n", yamlOut.String())
}

func TestUnknownOutputFormat(t *testing.T) {
	newCLIFixture(t)

	_, err := runCommand(t, "version", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestMissingConfigFile(t *testing.T) {
	newCLIFixture(t)

	_, err := runCommand(t, "scan", "-c", "/nonexistent/config.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfigError, GetExitCodeFromError(err))
}

func TestVersionCommand(t *testing.T) {
	newCLIFixture(t)

	out, err := runCommand(t, "version", "-o", "json")
	require.NoError(t, err)

	var response VersionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.NotEmpty(t, response.Client.Version)
	assert.NotEmpty(t, response.Client.GoVersion)

	out, err = runCommand(t, "version", "-o", "name")
	require.NoError(t, err)
	assert.Equal(t, response.Client.Version+"\n", out)
}

func TestScanCommand(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.addFile("/mnt/vol_a", "img-cache-young", gib, 800)
	f.addFile("/mnt/vol_a", "img-cache-old", 2*gib, 5000)
	f.addFile("/mnt/vol_a", "img-cache-fresh", gib, 10)

	out, err := runCommand(t, "scan", "-o", "json")
	require.NoError(t, err)

	var response MultipleScanResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Items, 2)

	a := response.Items[0]
	assert.Equal(t, shareA, a.Share)
	require.Len(t, a.Files, 2)
	assert.Equal(t, "img-cache-old", a.Files[0].Name)
	assert.Equal(t, "img-cache-young", a.Files[1].Name)
	assert.Equal(t, 3*gib, a.TotalBytes)

	assert.Equal(t, shareB, response.Items[1].Share)
	assert.Empty(t, response.Items[1].Files)
	assert.Empty(t, f.removed)
}

func TestScanCommand_Formats(t *testing.T) {
	f := newCLIFixture(t, shareA)
	f.addFile("/mnt/vol_a", "img-cache-old", 2*gib, 5000)

	out, err := runCommand(t, "scan", "-o", "name")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:/vol_a/img-cache-old\n", out)

	out, err = runCommand(t, "scan", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "img-cache-old")
	assert.Contains(t, out, "2.0 GiB")
	assert.Contains(t, out, "days ago")

	out, err = runCommand(t, "scan", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: img-cache-old")
}

func TestCapacityCommand(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(10*gib), nil)
	f.probe.EXPECT().Capacity(gomock.Any(), shareB).Return(uint64(0), uint64(0), errors.New("stale handle"))

	out, err := runCommand(t, "capacity", "-o", "json")
	require.NoError(t, err)

	var response MultipleCapacityResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Items, 2)

	a := response.Items[0]
	assert.Equal(t, 10, a.AvailablePercent)
	assert.True(t, a.NeedsCleaning)
	assert.Equal(t, 50*gib, a.BytesToFree)
	assert.Empty(t, a.Error)

	assert.Equal(t, "stale handle", response.Items[1].Error)
}

func TestCapacityCommand_AboveThreshold(t *testing.T) {
	f := newCLIFixture(t, shareA)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(90*gib), nil)

	capacities, err := func() ([]ShareCapacity, error) {
		manager, err := newManager(context.Background(), imagecache.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return shareCapacities(context.Background(), manager)
	}()
	require.NoError(t, err)
	require.Len(t, capacities, 1)
	assert.Equal(t, 90, capacities[0].AvailablePercent)
	assert.False(t, capacities[0].NeedsCleaning)
	assert.Zero(t, capacities[0].BytesToFree)
}

func TestPlanCommand(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(10*gib), nil)
	f.probe.EXPECT().Capacity(gomock.Any(), shareB).Return(uint64(100*gib), uint64(90*gib), nil)
	f.addFile("/mnt/vol_a", "img-cache-1", 30*gib, 1000)
	f.addFile("/mnt/vol_a", "img-cache-2", 30*gib, 2000)
	f.addFile("/mnt/vol_a", "img-cache-3", 30*gib, 3000)
	f.addFile("/mnt/vol_b", "img-cache-4", 30*gib, 3000)

	out, err := runCommand(t, "plan", "-o", "json")
	require.NoError(t, err)

	var response MultiplePlanResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Items, 2)

	a := response.Items[0].Plan
	assert.Equal(t, 50*gib, a.Target)
	require.Len(t, a.Files, 2)
	assert.Equal(t, "img-cache-3", a.Files[0].Name)
	assert.Equal(t, "img-cache-2", a.Files[1].Name)

	assert.Empty(t, response.Items[1].Plan.Files, "share above the start threshold needs no plan")
	assert.Empty(t, f.removed)
}

func TestPlanCommand_Target(t *testing.T) {
	f := newCLIFixture(t, shareA)
	f.addFile("/mnt/vol_a", "img-cache-1", gib, 1000)
	f.addFile("/mnt/vol_a", "img-cache-2", gib, 2000)

	out, err := runCommand(t, "plan", "--target", "1Gi", "-o", "name")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:/vol_a/img-cache-2\n", out)
}

func TestPlanCommand_BadTarget(t *testing.T) {
	newCLIFixture(t, shareA)

	_, err := runCommand(t, "plan", "--target", "lots")
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
}

func TestReclaimCommand(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(10*gib), nil)
	f.probe.EXPECT().Capacity(gomock.Any(), shareB).Return(uint64(100*gib), uint64(90*gib), nil)
	f.addFile("/mnt/vol_a", "img-cache-1", 30*gib, 1000)
	f.addFile("/mnt/vol_a", "img-cache-2", 30*gib, 2000)
	f.addFile("/mnt/vol_a", "img-cache-3", 30*gib, 3000)

	out, err := runCommand(t, "reclaim", "-o", "json")
	require.NoError(t, err)

	var response PassResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Shares, 2)
	assert.Equal(t, []string{"img-cache-3", "img-cache-2"}, response.Shares[0].Deleted)
	assert.Equal(t, "above_threshold", response.Shares[1].SkipReason)
	assert.Equal(t, 60*gib, response.FreedBytes)

	assert.Equal(t, []string{"/mnt/vol_a/img-cache-3", "/mnt/vol_a/img-cache-2"}, f.removed)
}

func TestReclaimCommand_Table(t *testing.T) {
	f := newCLIFixture(t, shareA)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(0), uint64(0), errors.New("stale handle"))

	out, err := runCommand(t, "reclaim")
	require.NoError(t, err)
	assert.Contains(t, out, "10.0.0.1:/vol_a")
	assert.Contains(t, out, "stale handle")
	assert.Empty(t, f.removed)
}

func TestListShares(t *testing.T) {
	shareC := types.Share{Host: "10.0.0.3", Path: "/vol_c"}
	f := newCLIFixture(t, shareA, shareC)

	cfg := imagecache.DefaultConfig()
	cfg.Shares = []string{"10.0.0.1:/vol_a", "10.0.0.2:/vol_b", "10.0.0.1:/vol_a"}
	manager, err := newManager(context.Background(), cfg)
	require.NoError(t, err)

	shares, err := listShares(context.Background(), manager)
	require.NoError(t, err)
	assert.Equal(t, []ShareMount{
		{Share: shareA, MountPoint: "/mnt/vol_a", Mounted: true},
		{Share: shareB, MountPoint: "/mnt/vol_b", Mounted: false},
		{Share: shareC, MountPoint: "/mnt/vol_c", Mounted: true},
	}, shares)

	var out bytes.Buffer
	OutputFormat = FormatName
	require.NoError(t, WriteShares(&out, shares))
	assert.Equal(t, "10.0.0.1:/vol_a\n10.0.0.2:/vol_b\n10.0.0.3:/vol_c\n", out.String())
	assert.Empty(t, f.removed)
}

func TestLookupCommand(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.writeFile("/mnt/vol_a", "img-cache-img1", 0)
	f.writeFile("/mnt/vol_b", "img-cache-img1", 0)
	f.writeFile("/mnt/vol_b", "img-cache-img2", 0)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(10*gib), nil)
	f.probe.EXPECT().Capacity(gomock.Any(), shareB).Return(uint64(100*gib), uint64(50*gib), nil)

	out, err := runCommand(t, "lookup", "img1", "--size", "20Gi", "-o", "json")
	require.NoError(t, err)

	var response MultipleCacheEntryResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Items, 2)

	assert.Equal(t, shareA, response.Items[0].Share)
	assert.Equal(t, "/mnt/vol_a/img-cache-img1", response.Items[0].Path)
	require.NotNil(t, response.Items[0].HasSpace)
	assert.False(t, *response.Items[0].HasSpace)

	assert.Equal(t, shareB, response.Items[1].Share)
	require.NotNil(t, response.Items[1].HasSpace)
	assert.True(t, *response.Items[1].HasSpace)
}

func TestLookupCommand_WithoutSize(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.writeFile("/mnt/vol_b", "img-cache-img1", 0)

	// No size, so no capacity is read.
	out, err := runCommand(t, "lookup", "img1", "-o", "name")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/vol_b/img-cache-img1\n", out)

	out, err = runCommand(t, "lookup", "img9", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": []}`, out)
}

func TestParseCloneSize(t *testing.T) {
	tests := []struct {
		size    string
		want    uint64
		wantErr bool
	}{
		{size: "", want: 0},
		{size: "20Gi", want: 20},
		{size: "1Mi", want: 1},
		{size: "1025Mi", want: 2},
		{size: "huge", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.size, func(t *testing.T) {
			got, err := parseCloneSize(tt.size)
			if tt.wantErr {
				assert.True(t, errors.IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCloneCommand(t *testing.T) {
	f := newCLIFixture(t, shareA, shareB)
	f.writeFile("/mnt/vol_a", "img-cache-img1", 3000)
	f.writeFile("/mnt/vol_b", "img-cache-img1", 3000)
	f.probe.EXPECT().Capacity(gomock.Any(), shareA).Return(uint64(100*gib), uint64(10*gib), nil)
	f.probe.EXPECT().Capacity(gomock.Any(), shareB).Return(uint64(100*gib), uint64(50*gib), nil)
	f.cloner.EXPECT().CloneFile(gomock.Any(), shareB, "img-cache-img1", "volume-1").
		DoAndReturn(func(_ context.Context, _ types.Share, _, destination string) error {
			return afero.WriteFile(f.fs, path.Join("/mnt/vol_b", destination), []byte("clone"), 0o644)
		})

	out, err := runCommand(t, "clone", "img1", "volume-1", "--size", "20Gi", "-o", "json")
	require.NoError(t, err)

	var response CloneResult
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, shareB, response.Share)
	assert.Equal(t, "/mnt/vol_b/volume-1", response.Path)

	info, err := f.fs.Stat("/mnt/vol_b/volume-1")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o660), info.Mode().Perm())

	// Using the cache file keeps it out of the next reclamation pass.
	cacheInfo, err := f.fs.Stat("/mnt/vol_b/img-cache-img1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), cacheInfo.ModTime(), time.Minute)
}

func TestCloneCommand_Errors(t *testing.T) {
	newCLIFixture(t, shareA)

	_, err := runCommand(t, "clone", "img1", "volume-1")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = runCommand(t, "clone", "img1", "../volume-1")
	assert.True(t, errors.IsConfigError(err))

	_, err = runCommand(t, "clone", "img1")
	assert.Error(t, err)
}
