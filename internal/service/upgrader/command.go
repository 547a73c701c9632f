package upgrader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oshokin/ffmpeg-upgrade/internal/archive"
	"github.com/oshokin/ffmpeg-upgrade/internal/config"
	"github.com/oshokin/ffmpeg-upgrade/internal/fetch"
	"github.com/oshokin/ffmpeg-upgrade/internal/logger"
	"github.com/oshokin/ffmpeg-upgrade/internal/release"
)

// Options are inputs accepted by the upgrader entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Version is the FFmpeg release to install, e.g. "7.2".
	Version string
	// ExtraArgs are forwarded to the rebuild script after the build target.
	ExtraArgs []string
	// LogLevel overrides the log_level setting when not empty.
	LogLevel string
	// WorkDir holds the tarball, the source tree and the build tool directory.
	// It defaults to the current working directory.
	WorkDir string
	// DryRun logs the planned actions without performing them.
	DryRun bool
	// HTTPClient is used for the download; http.DefaultClient when nil.
	HTTPClient *http.Client
	// Stdout receives the build output and the completion banner; os.Stdout when nil.
	Stdout io.Writer
	// Stderr receives the build error output; os.Stderr when nil.
	Stderr io.Writer
}

// runner holds the resolved paths and settings of a single upgrade.
// It is unexported; call Run(ctx, Options).
type runner struct {
	cfg        *config.Config  // Settings loaded from YAML and environment.
	release    release.Release // Release being installed.
	extraArgs  []string        // Arguments appended after the build target.
	dryRun     bool            // Only log what would happen.
	httpClient *http.Client    // Client for the tarball download.
	stdout     io.Writer       // Build output and banner.
	stderr     io.Writer       // Build error output.

	workDir     string // Absolute working directory.
	tarballPath string // <workDir>/ffmpeg-<version>.tar.bz2.
	sourceDir   string // <workDir>/ffmpeg-<version>, always absolute.
	jniDir      string // <workDir>/<jni_dir>, the build script's working directory.
	linkPath    string // <jniDir>/<link_name>.
	scriptPath  string // <jniDir>/<build_script>.
	logPath     string // <jniDir>/<build_log>.
}

// Run executes the upgrade and is the public entry point for the CLI.
// Use ExitCode to turn the returned error into a process status.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "ffmpeg-upgrade")

	up, err := newRunner(ctx, opts)
	if err != nil {
		logger.ErrorKV(ctx, "Upgrade failed", "error", err)
		return err
	}

	ctx = logger.WithKV(ctx, "version", up.release.Version())

	if err = up.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Upgrade failed", "error", err)
		return err
	}

	if !up.dryRun {
		up.printBanner()
	}

	logger.Info(ctx, "Upgrade completed")

	return nil
}

// newRunner validates the input before touching configuration, network or disk.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, errNilOptions)
	}

	rel, err := release.New(opts.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if _, err = rel.Semantic(); err != nil {
		logger.DebugKV(ctx, "Version is not semantic, using it verbatim", "version", rel.Version())
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("%w: unknown log level %q", ErrUsage, cfg.LogLevel)
	}

	logger.SetLevel(level)

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("detect working directory: %w", err)
		}
	}

	if workDir, err = filepath.Abs(workDir); err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	jniDir := filepath.Join(workDir, filepath.FromSlash(cfg.JNIDir))

	u := &runner{
		cfg:         cfg,
		release:     rel,
		extraArgs:   opts.ExtraArgs,
		dryRun:      opts.DryRun,
		httpClient:  opts.HTTPClient,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		workDir:     workDir,
		tarballPath: filepath.Join(workDir, rel.TarballName()),
		sourceDir:   filepath.Join(workDir, rel.SourceDir()),
		jniDir:      jniDir,
		linkPath:    filepath.Join(jniDir, cfg.LinkName),
		scriptPath:  filepath.Join(jniDir, cfg.BuildScript),
		logPath:     filepath.Join(jniDir, cfg.BuildLog),
	}

	if u.stdout == nil {
		u.stdout = os.Stdout
	}

	if u.stderr == nil {
		u.stderr = os.Stderr
	}

	return u, nil
}

// Run executes the workflow for this runner instance:
// 1) Download the tarball unless it is cached.
// 2) Remove the old source directory and link.
// 3) Extract the tarball.
// 4) Link the new source tree.
// 5) Run the rebuild script.
func (u *runner) Run(ctx context.Context) error {
	if u.dryRun {
		return u.logPlan(ctx)
	}

	if err := u.download(ctx); err != nil {
		return err
	}

	previous, hasPrevious := u.previousRelease(ctx)

	if err := u.clean(ctx); err != nil {
		return err
	}

	if err := u.extract(ctx); err != nil {
		return err
	}

	if err := u.link(ctx); err != nil {
		return err
	}

	if hasPrevious {
		u.logTransition(ctx, previous)
	}

	return u.build(ctx)
}

// download fetches the tarball unless a previous run left it in place.
func (u *runner) download(ctx context.Context) error {
	_, err := os.Stat(u.tarballPath)
	if err == nil {
		logger.InfoKV(ctx, "Tarball already present, skipping download", "path", u.tarballPath)
		return nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	downloadURL, err := u.release.DownloadURL(u.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	logger.InfoKV(ctx, "Downloading tarball", "url", downloadURL, "path", u.tarballPath)

	progress := newProgressReporter(ctx)

	if err = fetch.Download(ctx, u.httpClient, downloadURL, u.tarballPath, progress.update); err != nil {
		return fmt.Errorf("%w (check version/connection): %w", ErrDownload, err)
	}

	progress.finish()

	return nil
}

// clean removes the previous source directory and whatever occupies the link path.
// Both failures are link errors: the old link cannot be retired safely.
func (u *runner) clean(ctx context.Context) error {
	removed, err := removeWithoutFollowing(u.sourceDir)
	if err != nil {
		return fmt.Errorf("%w: remove old source directory: %w", ErrLink, err)
	}

	if removed {
		logger.InfoKV(ctx, "Removed old source directory", "path", u.sourceDir)
	}

	removed, err = removeWithoutFollowing(u.linkPath)
	if err != nil {
		return fmt.Errorf("%w: remove old link: %w", ErrLink, err)
	}

	if removed {
		logger.InfoKV(ctx, "Removed old source link", "path", u.linkPath)
	}

	return nil
}

// extract unpacks the tarball and checks that it produced the source directory.
func (u *runner) extract(ctx context.Context) error {
	logger.InfoKV(ctx, "Extracting tarball", "path", u.tarballPath, "into", u.workDir)

	if err := archive.ExtractTarBz2(ctx, u.tarballPath, u.workDir); err != nil {
		return fmt.Errorf("%w: %w", ErrExtract, err)
	}

	info, err := os.Stat(u.sourceDir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExtract, u.sourceDir, errMissingSourceDir)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s: %w", ErrExtract, u.sourceDir, errSourceNotDir)
	}

	return nil
}

// link points the build input path at the absolute source directory.
// The build script runs in another directory, so a relative target would break.
func (u *runner) link(ctx context.Context) error {
	if err := os.Symlink(u.sourceDir, u.linkPath); err != nil {
		return fmt.Errorf("%w: %w", ErrLink, err)
	}

	logger.InfoKV(ctx, "Linked source tree", "link", u.linkPath, "target", u.sourceDir)

	return nil
}

// previousRelease reads the release the link pointed at before this run.
func (u *runner) previousRelease(ctx context.Context) (release.Release, bool) {
	target, err := os.Readlink(u.linkPath)
	if err != nil {
		return release.Release{}, false
	}

	previous, err := release.FromSourceDir(target)
	if err != nil {
		logger.DebugKV(ctx, "Previous link target is not a release directory", "target", target)
		return release.Release{}, false
	}

	return previous, true
}

// logTransition reports whether the run moved the tree forward or back.
func (u *runner) logTransition(ctx context.Context, previous release.Release) {
	var action string

	switch u.release.Compare(previous) {
	case 1:
		action = "Upgraded source tree"
	case -1:
		action = "Downgraded source tree"
	default:
		action = "Reinstalled source tree"
	}

	logger.InfoKV(ctx, action, "from", previous.Version(), "to", u.release.Version())
}

// removeWithoutFollowing deletes a symlink, a directory tree or a file at path.
// A symlink is removed itself; its target is left untouched.
func removeWithoutFollowing(path string) (bool, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		err = os.Remove(path)
	case info.IsDir():
		err = os.RemoveAll(path)
	default:
		err = os.Remove(path)
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
