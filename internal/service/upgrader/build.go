package upgrader

import (
	"context"
	"errors"
	"os/exec"

	"github.com/oshokin/ffmpeg-upgrade/internal/logger"
	"github.com/oshokin/ffmpeg-upgrade/internal/shell"
)

// buildArgs returns the build target followed by the forwarded arguments.
func (u *runner) buildArgs() []string {
	args := make([]string, 0, len(u.extraArgs)+1)
	args = append(args, u.cfg.BuildTarget)

	return append(args, u.extraArgs...)
}

// build runs the rebuild script inside the JNI directory.
// The child gets its own working directory; the tool's directory never changes.
func (u *runner) build(ctx context.Context) error {
	args := u.buildArgs()

	logger.InfoKV(ctx, "Running build script",
		"command", shell.EscapeCommand(u.scriptPath, args...),
		"dir", u.jniDir,
		"log", u.logPath)

	cmd := exec.CommandContext(ctx, u.scriptPath, args...)
	cmd.Dir = u.jniDir
	cmd.Stdout = u.stdout
	cmd.Stderr = u.stderr

	err := cmd.Run()
	if err == nil {
		logger.Info(ctx, "Build script finished")
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &BuildError{
			ExitCode: exitErr.ExitCode(),
			LogPath:  u.logPath,
		}
	}

	// Not started, or killed by a signal.
	return &BuildError{
		ExitCode: FailureExitCode,
		LogPath:  u.logPath,
		Err:      err,
	}
}
