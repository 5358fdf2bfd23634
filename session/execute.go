package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/groundupworks/yksp/backup"
	"github.com/groundupworks/yksp/devices"
	"github.com/groundupworks/yksp/script"
	"github.com/groundupworks/yksp/testcase"
	"github.com/groundupworks/yksp/utils"
	"github.com/groundupworks/yksp/viewclient"
)

// BackupConfirmPackage shows the on-device backup confirmation screen.
const BackupConfirmPackage = "com.android.backupconfirm"

const (
	acceptButtonAttempts = 3
	acceptButtonDelay    = time.Second
)

// executeTestCase runs one script on one device and collects everything it
// leaves behind into deviceRoot/<script name>.
func (s *Session) executeTestCase(ctx context.Context, device *devices.AndroidDevice, pkg, deviceRoot, scriptPath string) CaseSummary {
	name := script.BaseName(scriptPath)
	dirResults := filepath.Join(deviceRoot, name)
	cs := CaseSummary{Script: filepath.Base(scriptPath), Dir: dirResults, Outcome: OutcomeError, DataFiles: -1}
	s.emit(Event{Type: EventTestCaseStarted, Serial: device.ID(), Script: cs.Script})
	defer func() {
		s.emit(Event{Type: EventTestCaseFinished, Serial: device.ID(), Script: cs.Script, Case: &cs})
	}()

	dirData := filepath.Join(dirResults, DataDirName)
	for _, dir := range []string{dirResults, dirData} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			cs.Message = fmt.Sprintf("failed to create results directory: %v", err)
			utils.Error("%s", cs.Message)
			return cs
		}
	}

	localScript := filepath.Join(dirResults, filepath.Base(scriptPath))
	if err := utils.CopyFile(scriptPath, localScript); err != nil {
		cs.Message = fmt.Sprintf("failed to copy script: %v", err)
		utils.Error("%s", cs.Message)
		return cs
	}

	stopLogcat := s.startLogcat(ctx, device, dirResults)

	opts := testcase.Options{
		Package:     pkg,
		Serial:      device.ID(),
		Root:        dirResults,
		Logs:        TestLogFileName,
		Screenshots: ScreenshotsDirName,
		Screendumps: ScreendumpsDirName,
		Script:      localScript,
	}
	s.printf("Executing [%s]...", cs.Script)
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Session.ScriptTimeout)
	runErr := s.tests.RunTestCase(runCtx, opts)
	cancel()

	stopLogcat()
	s.printf("Logcat output saved")

	s.applyResult(&cs, runErr)

	// cleanup below must run even when the session is being interrupted
	cleanupCtx := context.WithoutCancel(ctx)
	if result, err := s.downloadAppData(cleanupCtx, device, pkg, dirResults); err != nil {
		utils.Verbose("App data not downloaded: %v", err)
	} else if result != nil {
		cs.DataFiles = len(result.Files)
	}

	s.printf("Wiping app data...")
	if err := device.ClearData(cleanupCtx, pkg); err != nil {
		utils.Warn("%v", err)
	}

	return cs
}

func (s *Session) applyResult(cs *CaseSummary, runErr error) {
	if runErr != nil {
		cs.Message = runErr.Error()
		utils.Error("Test case %s could not run: %v", cs.Script, runErr)
		return
	}

	result, err := testcase.ReadResult(filepath.Join(cs.Dir, testcase.ResultFileName))
	if err != nil {
		cs.Message = fmt.Sprintf("no test result: %v", err)
		utils.Error("%s", cs.Message)
		return
	}

	cs.Ran = result.Ran
	cs.Failures = result.Failures
	cs.Errors = result.Errors
	if result.Successful() {
		cs.Outcome = OutcomePassed
	} else {
		cs.Outcome = OutcomeFailed
		cs.Message = fmt.Sprintf("failures=%d, errors=%d", result.Failures, result.Errors)
	}
	s.printf("Ran %d tests: %s", result.Ran, cs.Outcome)
}

// startLogcat clears the logcat buffer and streams it into logcat.txt until
// the returned function is called.
func (s *Session) startLogcat(ctx context.Context, device *devices.AndroidDevice, dirResults string) func() {
	s.printf("Clearing logcat buffer...")
	if err := device.ClearLogcat(ctx); err != nil {
		utils.Warn("%v", err)
	}

	f, err := os.Create(filepath.Join(dirResults, LogcatFileName))
	if err != nil {
		utils.Error("failed to create logcat file: %v", err)
		return func() {}
	}

	s.printf("Start printing logcat output to file...")
	proc, err := device.StartLogcat(ctx, f, s.cfg.Logcat.Format)
	if err != nil {
		utils.Error("%v", err)
		f.Close()
		return func() {}
	}

	unregister := s.registerHook("logcat "+device.ID(), proc.Stop)

	return func() {
		defer unregister()
		if err := proc.Stop(); err != nil {
			utils.Verbose("logcat stop: %v", err)
		}
		f.Close()
	}
}

// registerHook makes an interrupt stop the process until the returned func is called.
func (s *Session) registerHook(name string, stop func() error) func() {
	if s.hook == nil {
		return func() {}
	}
	return s.hook.Register(name, stop)
}

// downloadAppData backs up the app through `adb backup`, accepts the
// confirmation screen and extracts the archive into dirResults/data. A nil
// result with a nil error means the download was disabled.
func (s *Session) downloadAppData(ctx context.Context, device *devices.AndroidDevice, pkg, dirResults string) (*backup.Result, error) {
	if err := device.PressKey(ctx, "KEYCODE_HOME"); err != nil {
		utils.Warn("%v", err)
	}
	if err := device.ForceStop(ctx, BackupConfirmPackage); err != nil {
		utils.Verbose("%v", err)
	}

	if s.cfg.Backup.Disabled {
		return nil, nil
	}

	abFile := filepath.Join(dirResults, BackupFileName)
	s.printf("Downloading app data from device...")
	proc, err := device.StartBackup(ctx, abFile, pkg)
	if err != nil {
		s.printf("Failed to download app data")
		return nil, err
	}
	defer s.registerHook("backup "+device.ID(), proc.Stop)()

	button := s.findAcceptButton(ctx, device)
	if button == nil || !button.IsEnabled() {
		s.abandonBackup(ctx, device, proc, abFile)
		return nil, fmt.Errorf("backup confirmation button %s not found", s.cfg.Backup.AcceptButtonID)
	}

	if err := button.Touch(ctx); err != nil {
		s.abandonBackup(ctx, device, proc, abFile)
		return nil, err
	}

	if err := waitProcess(proc, s.cfg.Backup.Timeout); err != nil {
		s.abandonBackup(ctx, device, proc, abFile)
		return nil, err
	}

	s.printf("Extracting app data...")
	result, err := backup.ExtractFile(abFile, filepath.Join(dirResults, DataDirName))
	if err != nil {
		s.printf("Failed to download app data")
		return nil, err
	}
	for _, f := range result.Files {
		utils.Verbose("x %s", f)
	}

	s.printf("App data downloaded")
	return result, nil
}

func (s *Session) findAcceptButton(ctx context.Context, device *devices.AndroidDevice) *viewclient.View {
	vc := viewclient.New(device)
	for attempt := 0; attempt < acceptButtonAttempts; attempt++ {
		if attempt > 0 {
			if err := s.sleep(ctx, acceptButtonDelay); err != nil {
				return nil
			}
		}
		if _, err := vc.Dump(ctx); err != nil {
			utils.Verbose("%v", err)
			continue
		}
		if v := vc.FindViewByID(s.cfg.Backup.AcceptButtonID); v != nil {
			return v
		}
	}
	return nil
}

func (s *Session) abandonBackup(ctx context.Context, device *devices.AndroidDevice, proc devices.Process, abFile string) {
	if err := proc.Stop(); err != nil {
		utils.Verbose("backup stop: %v", err)
	}
	if err := device.ForceStop(ctx, BackupConfirmPackage); err != nil {
		utils.Verbose("%v", err)
	}
	if err := os.Remove(abFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Warn("failed to remove %s: %v", abFile, err)
	}
	s.printf("Failed to download app data")
}

func waitProcess(proc devices.Process, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- proc.Wait()
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return err
	case <-t.C:
		_ = proc.Stop()
		<-done
		return fmt.Errorf("backup did not finish within %s", timeout)
	}
}
