// Package apk locates the application package under test and reads its
// manifest summary through `aapt dump badging`.
package apk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/groundupworks/yksp/devices"
)

var (
	ErrNoAPK      = errors.New("failed to find APK")
	ErrInvalidAPK = errors.New("failed to validate APK")
)

var (
	reName        = regexp.MustCompile(`name='(.*?)'`)
	reVersionCode = regexp.MustCompile(`versionCode='(.*?)'`)
	reVersionName = regexp.MustCompile(`versionName='(.*?)'`)
	reLabel       = regexp.MustCompile(`^application-label:'(.*)'$`)
	reSdk         = regexp.MustCompile(`^sdkVersion:'(.*)'$`)
	reActivity    = regexp.MustCompile(`^launchable-activity: name='(.*?)'`)
)

// PackageInfo is what the harness needs to know about an APK.
type PackageInfo struct {
	File               string `json:"file,omitempty"`
	Name               string `json:"packageName"`
	VersionCode        string `json:"versionCode,omitempty"`
	VersionName        string `json:"versionName,omitempty"`
	Label              string `json:"label,omitempty"`
	MinSDK             string `json:"minSdk,omitempty"`
	LaunchableActivity string `json:"launchableActivity,omitempty"`
}

// Find returns the first *.apk file in dir, in lexical order.
func Find(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".apk") {
			names = append(names, e.Name())
		}
	}

	if len(names) == 0 {
		return "", ErrNoAPK
	}

	sort.Strings(names)
	return names[0], nil
}

// ParseBadging extracts the package details from aapt badging output.
func ParseBadging(output string) (*PackageInfo, error) {
	info := &PackageInfo{}
	found := false

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, "package:"):
			m := reName.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			found = true
			info.Name = m[1]
			if m := reVersionCode.FindStringSubmatch(line); m != nil {
				info.VersionCode = m[1]
			}
			if m := reVersionName.FindStringSubmatch(line); m != nil {
				info.VersionName = m[1]
			}
		case reLabel.MatchString(line):
			info.Label = reLabel.FindStringSubmatch(line)[1]
		case reSdk.MatchString(line):
			info.MinSDK = reSdk.FindStringSubmatch(line)[1]
		case reActivity.MatchString(line):
			info.LaunchableActivity = reActivity.FindStringSubmatch(line)[1]
		}
	}

	if !found || info.Name == "" {
		return nil, ErrInvalidAPK
	}

	return info, nil
}

// Inspect runs aapt on apkPath and parses the result.
func Inspect(ctx context.Context, runner devices.Runner, aapt, apkPath string) (*PackageInfo, error) {
	if aapt == "" {
		aapt = "aapt"
	}

	output, err := runner.Run(ctx, aapt, "dump", "badging", apkPath)
	if err != nil && len(output) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAPK, err)
	}

	// aapt exits non-zero on some harmless manifest warnings but still prints the package line
	info, perr := ParseBadging(string(output))
	if perr != nil {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", perr, err)
		}
		return nil, perr
	}

	info.File = apkPath
	return info, nil
}
