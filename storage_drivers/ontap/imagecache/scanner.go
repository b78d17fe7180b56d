// Copyright 2025 NetApp, Inc. All Rights Reserved.

package imagecache

import (
	"bufio"
	"bytes"
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	. "github.com/netapp/nfs-imagecache/logging"
	"github.com/netapp/nfs-imagecache/storage_drivers/ontap/imagecache/types"
	"github.com/netapp/nfs-imagecache/utils/exec"
)

// findPrintfFormat makes find emit "name<TAB>size<TAB>atime" per file, atime in fractional epoch seconds.
const findPrintfFormat = `%f\t%s\t%A@\n`

// ShellScanner lists stale cache files with find(1) on the share's mount point.
type ShellScanner struct {
	shell  shell
	shares types.ShareProvider
	now    func() time.Time
}

var _ types.CacheFileScanner = (*ShellScanner)(nil)

func NewShellScanner(command exec.Command, shares types.ShareProvider, config *Config) *ShellScanner {
	return &ShellScanner{
		shell:  newShell(command, config),
		shares: shares,
		now:    time.Now,
	}
}

// FindStale returns the top-level cache files on share not accessed for at least ageThresholdMinutes.  Failures
// are logged and produce an empty result.
func (s *ShellScanner) FindStale(ctx context.Context, share types.Share, ageThresholdMinutes int) []types.CacheFile {
	mountPoint := s.shares.MountPoint(share)
	if ageThresholdMinutes < 0 {
		ageThresholdMinutes = 0
	}

	fields := LogFields{
		"share":      share.String(),
		"mountPoint": mountPoint,
		"threshold":  ageThresholdMinutes,
	}
	Logc(ctx).WithFields(fields).Debug(">>>> ShellScanner.FindStale")
	defer Logc(ctx).WithFields(fields).Debug("<<<< ShellScanner.FindStale")

	out, err := s.shell.run(ctx, false, "find", mountPoint,
		"-maxdepth", "1",
		"-name", types.CacheFilePrefix+"*",
		"-amin", "+"+strconv.Itoa(ageThresholdMinutes),
		"-printf", findPrintfFormat,
	)
	if err != nil {
		Logc(ctx).WithFields(fields).WithError(err).Warning("Could not list cache files.")
		return []types.CacheFile{}
	}

	return s.parse(ctx, share, out, int64(ageThresholdMinutes))
}

func (s *ShellScanner) parse(ctx context.Context, share types.Share, out []byte, threshold int64) []types.CacheFile {
	now := s.now()
	files := make([]types.CacheFile, 0)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		file, err := parseFindLine(line, now)
		if err != nil {
			Logc(ctx).WithField("line", line).WithError(err).Warning("Ignoring unparseable find output.")
			continue
		}
		if !strings.HasPrefix(file.Name, types.CacheFilePrefix) || strings.Contains(file.Name, "/") {
			continue
		}
		// find rounds -amin differently than we do; the age computed here is authoritative.
		if file.AgeMinutes < threshold {
			continue
		}

		file.Share = share
		files = append(files, file)
	}

	Logc(ctx).WithFields(LogFields{
		"share": share.String(),
		"count": len(files),
	}).Debug("Found stale cache files.")

	return files
}

func parseFindLine(line string, now time.Time) (types.CacheFile, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return types.CacheFile{}, strconv.ErrSyntax
	}

	size, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || size < 0 {
		return types.CacheFile{}, strconv.ErrSyntax
	}

	atime, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || math.IsNaN(atime) || math.IsInf(atime, 0) {
		return types.CacheFile{}, strconv.ErrSyntax
	}

	sec, frac := math.Modf(atime)
	accessed := time.Unix(int64(sec), int64(frac*float64(time.Second)))
	age := int64(now.Sub(accessed) / time.Minute)
	if age < 0 {
		age = 0
	}

	return types.CacheFile{
		Name:       parts[0],
		SizeBytes:  size,
		AgeMinutes: age,
	}, nil
}
