// SPDX-License-Identifier: MIT
//
// Package build exposes the binary's name, version, commit and build time.
// Release builds inject them with -ldflags:
//
//	go build -ldflags "-X spectrum/pkg/build.buildName=musical-spectrum \
//	    -X spectrum/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds (go run, go install) carry no injected values; the
// module build info recorded by the toolchain is used instead.
package build

import (
	"fmt"
	"runtime/debug"
)

const (
	defaultName        = "musical-spectrum"
	defaultDescription = "Musical-note aligned real-time spectrum visualizer"
	unknown            = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Initialize resolves the build information. Injected values win. When
// none were injected the toolchain's build info is used. A build that
// injected only some of the values is rejected, since it was produced by
// a broken release script.
func Initialize() error {
	injected := 0
	for _, v := range []string{buildName, buildTime, buildCommit, buildVersion} {
		if v != "" {
			injected++
		}
	}
	if injected > 0 && injected < 4 {
		return fmt.Errorf("incomplete build flags: %d of 4 injected", injected)
	}

	if injected == 4 {
		buildFlags.Name = buildName
		buildFlags.Time = buildTime
		buildFlags.Commit = buildCommit
		buildFlags.Version = buildVersion
		return nil
	}

	info, ok := readBuildInfo()
	if !ok {
		return nil
	}
	if v := info.Main.Version; v != "" {
		buildFlags.Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			buildFlags.Commit = s.Value
		case "vcs.time":
			buildFlags.Time = s.Value
		}
	}
	return nil
}

// GetBuildFlags returns the resolved build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
