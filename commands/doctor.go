package commands

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

type DoctorInfo struct {
	Version     string `json:"yksp_version"`
	OS          string `json:"os"`
	OSVersion   string `json:"os_version"`
	AndroidHome string `json:"android_home"`
	ADBPath     string `json:"adb_path"`
	ADBVersion  string `json:"adb_version,omitempty"`
	AAPTPath    string `json:"aapt_path"`
	AAPTVersion string `json:"aapt_version,omitempty"`
	ScriptsDir  string `json:"scripts_dir"`
	ResultsDir  string `json:"results_dir"`
}

func getAndroidSdkPath() string {
	sdkPath := os.Getenv("ANDROID_HOME")
	if sdkPath != "" {
		if _, err := os.Stat(sdkPath); err == nil {
			return sdkPath
		}
	}

	// try default Android SDK location on macOS
	homeDir := os.Getenv("HOME")
	if homeDir != "" {
		defaultPath := filepath.Join(homeDir, "Library", "Android", "sdk")
		if _, err := os.Stat(defaultPath); err == nil {
			return defaultPath
		}
	}

	// try default Android SDK location on Windows
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData != "" {
			defaultPath := filepath.Join(localAppData, "Android", "Sdk")
			if _, err := os.Stat(defaultPath); err == nil {
				return defaultPath
			}
		}

		// fallback to USERPROFILE on Windows
		userProfile := os.Getenv("USERPROFILE")
		if userProfile != "" {
			defaultPath := filepath.Join(userProfile, "AppData", "Local", "Android", "Sdk")
			if _, err := os.Stat(defaultPath); err == nil {
				return defaultPath
			}
		}
	}

	return ""
}

func getAdbPath(configured string) string {
	if configured != "" && configured != "adb" {
		if path, err := exec.LookPath(configured); err == nil {
			return path
		}
	}

	sdkPath := getAndroidSdkPath()
	if sdkPath != "" {
		adbPath := filepath.Join(sdkPath, "platform-tools", "adb")
		if runtime.GOOS == "windows" {
			adbPath += ".exe"
		}

		if _, err := os.Stat(adbPath); err == nil {
			return adbPath
		}
	}

	// check if adb is in PATH
	adbPath, err := exec.LookPath("adb")
	if err == nil {
		return adbPath
	}

	return ""
}

func getAdbVersion(adbPath string) string {
	if adbPath == "" {
		return ""
	}

	cmd := exec.Command(adbPath, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return ""
	}

	// parse the output to get just the version line
	lines := strings.Split(string(output), "\n")
	for _, line := range lines {
		if strings.Contains(line, "Android Debug Bridge version") {
			return strings.TrimSpace(line)
		}
	}

	return strings.TrimSpace(string(output))
}

// getAaptPath returns the configured aapt when it resolves, otherwise the one
// from the newest SDK build-tools
func getAaptPath(configured string) string {
	if configured != "" {
		if path, err := exec.LookPath(configured); err == nil {
			return path
		}
	}

	sdkPath := getAndroidSdkPath()
	if sdkPath == "" {
		return ""
	}

	name := "aapt"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	matches, _ := filepath.Glob(filepath.Join(sdkPath, "build-tools", "*", name))
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

func getAaptVersion(aaptPath string) string {
	if aaptPath == "" {
		return ""
	}

	output, err := exec.Command(aaptPath, "version").CombinedOutput()
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(output))
}

func getOSVersion() string {
	switch runtime.GOOS {
	case "darwin":
		cmd := exec.Command("sw_vers", "-productVersion")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "windows":
		cmd := exec.Command("cmd", "/c", "ver")
		output, err := cmd.CombinedOutput()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(output))
	case "linux":
		// try reading /etc/os-release
		data, err := os.ReadFile("/etc/os-release")
		if err != nil {
			return ""
		}
		lines := strings.Split(string(data), "\n")
		for _, line := range lines {
			if strings.HasPrefix(line, "PRETTY_NAME=") {
				return strings.Trim(strings.TrimPrefix(line, "PRETTY_NAME="), "\"")
			}
		}
		return ""
	default:
		return ""
	}
}

// DoctorCommand performs system diagnostics and returns information about the environment
func DoctorCommand(version string) *CommandResponse {
	cfg := GetConfig()
	info := DoctorInfo{
		Version:     version,
		OS:          runtime.GOOS,
		OSVersion:   getOSVersion(),
		AndroidHome: os.Getenv("ANDROID_HOME"),
		ADBPath:     getAdbPath(cfg.Tools.Adb),
		AAPTPath:    getAaptPath(cfg.Tools.Aapt),
		ScriptsDir:  cfg.Paths.Scripts,
		ResultsDir:  cfg.Paths.Results,
	}

	// get adb version if adb is available
	if info.ADBPath != "" {
		info.ADBVersion = getAdbVersion(info.ADBPath)
	}

	if info.AAPTPath != "" {
		info.AAPTVersion = getAaptVersion(info.AAPTPath)
	}

	return NewSuccessResponse(info)
}
