package upgrader

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/ffmpeg-upgrade/internal/logger"
	"github.com/oshokin/ffmpeg-upgrade/internal/shell"
)

const (
	// progressPercentStep is how often progress is logged when the size is known.
	progressPercentStep = 10
	// progressByteStep is how often progress is logged when the size is unknown.
	progressByteStep = 8 << 20
	// bannerWidth is the width of the completion banner rule.
	bannerWidth = 60
)

// progressReporter throttles download progress into a few log records.
type progressReporter struct {
	ctx         context.Context //nolint:containedctx // The callback signature has no context.
	nextPercent int64
	nextBytes   int64
	written     int64
}

func newProgressReporter(ctx context.Context) *progressReporter {
	return &progressReporter{
		ctx:         ctx,
		nextPercent: progressPercentStep,
		nextBytes:   progressByteStep,
	}
}

// update matches fetch.ProgressFunc.
func (p *progressReporter) update(written, total int64) {
	p.written = written

	if total > 0 {
		percent := written * 100 / total
		if percent < p.nextPercent {
			return
		}

		logger.InfoKV(p.ctx, "Download progress", "percent", percent, "bytes", written, "total", total)
		p.nextPercent = percent - percent%progressPercentStep + progressPercentStep

		return
	}

	if written < p.nextBytes {
		return
	}

	logger.InfoKV(p.ctx, "Download progress", "bytes", written)
	p.nextBytes = written + progressByteStep
}

func (p *progressReporter) finish() {
	logger.InfoKV(p.ctx, "Download finished", "bytes", p.written)
}

// logPlan describes a run without performing it.
func (u *runner) logPlan(ctx context.Context) error {
	downloadURL, err := u.release.DownloadURL(u.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDownload, err)
	}

	logger.Info(ctx, "Dry run, nothing will be changed")
	logger.InfoKV(ctx, "Would download tarball unless present", "url", downloadURL, "path", u.tarballPath)
	logger.InfoKV(ctx, "Would replace source directory", "path", u.sourceDir)
	logger.InfoKV(ctx, "Would link source tree", "link", u.linkPath, "target", u.sourceDir)
	logger.InfoKV(ctx, "Would run build script",
		"command", shell.EscapeCommand(u.scriptPath, u.buildArgs()...),
		"dir", u.jniDir)

	return nil
}

// printBanner tells the user the upgrade is complete.
func (u *runner) printBanner() {
	rule := strings.Repeat("=", bannerWidth)

	_, _ = fmt.Fprintf(u.stdout, "%s\n FFmpeg %s upgrade complete\n source: %s\n link:   %s\n%s\n",
		rule, u.release.Version(), u.sourceDir, u.linkPath, rule)
}
