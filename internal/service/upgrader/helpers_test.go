package upgrader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oshokin/ffmpeg-upgrade/internal/config"
	"github.com/oshokin/ffmpeg-upgrade/internal/logger"
)

// fakeBuildScript records its arguments, working directory and link target, then exits with a fixed status.
const fakeBuildScript = `#!/bin/sh
printf '%%s\n' "$@" > build-args.txt
pwd > build-cwd.txt
readlink ffmpeg > build-link.txt
echo "rebuild log" > rebuild-ffmpeg.log
exit %d
`

// releaseServer serves the tarballs from testdata and counts requests.
type releaseServer struct {
	*httptest.Server

	requests atomic.Int32
}

func newReleaseServer(t *testing.T) *releaseServer {
	t.Helper()

	rs := new(releaseServer)
	files := http.FileServer(http.Dir("testdata"))

	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.requests.Add(1)
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(rs.Close)

	return rs
}

// workspace is a working directory with a JNI build tree and a settings file.
type workspace struct {
	dir        string
	jniDir     string
	configPath string
}

func newWorkspace(t *testing.T, baseURL string, buildExitCode int) *workspace {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("the fake build script and symlinks need a POSIX system")
	}

	ws := &workspace{dir: t.TempDir()}
	ws.jniDir = filepath.Join(ws.dir, "ffmpeg", "JNI")
	ws.configPath = filepath.Join(ws.dir, config.DefaultConfigFilename)

	require.NoError(t, os.MkdirAll(ws.jniDir, 0o755))
	ws.writeBuildScript(t, buildExitCode)
	require.NoError(t, config.Save(ws.configPath, &config.Config{BaseURL: baseURL}))

	return ws
}

func (ws *workspace) writeBuildScript(t *testing.T, exitCode int) {
	t.Helper()

	script := fmt.Sprintf(fakeBuildScript, exitCode)
	require.NoError(t, os.WriteFile(filepath.Join(ws.jniDir, "rebuild-ffmpeg.sh"), []byte(script), 0o755))
}

func (ws *workspace) options(version string, extraArgs ...string) *Options {
	return &Options{
		ConfigPath: ws.configPath,
		Version:    version,
		ExtraArgs:  extraArgs,
		WorkDir:    ws.dir,
		Stdout:     new(strings.Builder),
		Stderr:     new(strings.Builder),
	}
}

func (ws *workspace) linkPath() string {
	return filepath.Join(ws.jniDir, "ffmpeg")
}

func (ws *workspace) readJNIFile(t *testing.T, name string) string {
	t.Helper()

	contents, err := os.ReadFile(filepath.Join(ws.jniDir, name))
	require.NoError(t, err)

	return string(contents)
}

func (ws *workspace) copyTarball(t *testing.T, version string) {
	t.Helper()

	name := "ffmpeg-" + version + ".tar.bz2"

	contents, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(ws.dir, name), contents, 0o644))
}

// quietContext keeps test output free of upgrade logs.
func quietContext() context.Context {
	return logger.ToContext(context.Background(), zap.NewNop().Sugar())
}
