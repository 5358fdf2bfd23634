package cli

var (
	verbose    bool
	configPath string
	adbPath    string
	aaptPath   string

	// all device commands
	deviceId string

	// for screenshot command
	screenshotOutputPath  string
	screenshotFormat      string
	screenshotJpegQuality int

	// for devices and info commands
	showAllDevices bool
	showAllProps   bool

	// for dump command
	dumpFormat string

	// for io swipe command
	swipeDurationMs int

	// for run command
	runArchive        string
	runScriptsDir     string
	runResultsDir     string
	runNoBackup       bool
	failOnTestFailure bool

	// for testcase command
	testcaseOpts testcaseFlags
)

type testcaseFlags struct {
	pkg         string
	serial      string
	root        string
	logs        string
	screenshots string
	screendumps string
}
