package testcase

import (
	"fmt"
	"io"

	"github.com/groundupworks/yksp/utils"
)

// UsageExitCode is returned for missing or invalid options.
const UsageExitCode = 2

// Options select the device, package and output locations of one test case run.
type Options struct {
	Package     string
	Serial      string
	Root        string
	Logs        string
	Screenshots string
	Screendumps string
	Script      string
}

// UsageError reports an option problem. Callers print it with the usage text
// and exit with UsageExitCode.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// Validate checks required options in the order they are documented.
func (o Options) Validate() error {
	switch {
	case o.Package == "":
		return &UsageError{"--package must be specified"}
	case o.Serial == "":
		return &UsageError{"--serial must be specified"}
	case o.Root == "":
		return &UsageError{"--root must be specified"}
	case o.Screenshots == "":
		return &UsageError{"--screenshots must be specified"}
	case o.Screendumps == "":
		return &UsageError{"--screendumps must be specified"}
	case o.Script == "":
		return &UsageError{"a script must be specified"}
	case !utils.IsDir(o.Root):
		return &UsageError{"--root specifies an invalid directory"}
	}
	return nil
}

// Args renders the options as command line arguments for `yksp testcase`.
func (o Options) Args() []string {
	args := []string{
		"--package", o.Package,
		"--serial", o.Serial,
		"--root", o.Root,
		"--screenshots", o.Screenshots,
		"--screendumps", o.Screendumps,
	}
	if o.Logs != "" {
		args = append(args, "--logs", o.Logs)
	}
	return append(args, o.Script)
}

// PrintUsage writes the option table.
func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "\nUsage: yksp testcase [options] <script>")
	fmt.Fprintln(w, "-h, --help                    OPTIONAL    print this help and exit")
	fmt.Fprintln(w, "-p, --package <package>       REQUIRED    specify the package name of the application")
	fmt.Fprintln(w, "-s, --serial <serial>         REQUIRED    specify the serial number of the device to run this test case")
	fmt.Fprintln(w, "-r, --root <dir>              REQUIRED    specify the root directory to save the results of this test case")
	fmt.Fprintln(w, "-l, --logs <file>             OPTIONAL    specify the filename to save the test logs")
	fmt.Fprintln(w, "-m, --screenshots <folder>    REQUIRED    specify the folder name to save the screenshots")
	fmt.Fprintln(w, "-n, --screendumps <folder>    REQUIRED    specify the folder name to save the screendumps")
}
