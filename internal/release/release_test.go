package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNew_RejectsEmpty ensures blank versions are refused.
func TestNew_RejectsEmpty(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"", " ", "\t\n"} {
		_, err := New(v)
		require.ErrorIs(t, err, ErrEmptyVersion)
	}
}

// TestNew_RejectsPathLikeVersions keeps the source directory a single name under the working directory.
func TestNew_RejectsPathLikeVersions(t *testing.T) {
	t.Parallel()

	for _, v := range []string{
		"x/../../victim",
		"../7.2",
		"7.2/",
		"a\\b",
		"7.2\x00",
	} {
		_, err := New(v)
		require.ErrorIs(t, err, ErrInvalidVersion, v)
	}
}

// TestNew_KeepsVersionVerbatim does not trim or rewrite the input.
func TestNew_KeepsVersionVerbatim(t *testing.T) {
	t.Parallel()

	r, err := New(" 7.2")
	require.NoError(t, err)
	require.Equal(t, " 7.2", r.Version())
	require.Equal(t, "ffmpeg- 7.2", r.SourceDir())

	r, err = New("..")
	require.NoError(t, err)
	require.Equal(t, "ffmpeg-..", r.SourceDir())
}

// TestNames checks the derived file names and download URL.
func TestNames(t *testing.T) {
	t.Parallel()

	r, err := New("7.2")
	require.NoError(t, err)
	require.Equal(t, "7.2", r.Version())
	require.Equal(t, "ffmpeg-7.2", r.SourceDir())
	require.Equal(t, "ffmpeg-7.2.tar.bz2", r.TarballName())

	cases := map[string]string{
		"https://ffmpeg.org/releases":      "https://ffmpeg.org/releases/ffmpeg-7.2.tar.bz2",
		"https://ffmpeg.org/releases/":     "https://ffmpeg.org/releases/ffmpeg-7.2.tar.bz2",
		"http://127.0.0.1:8080":            "http://127.0.0.1:8080/ffmpeg-7.2.tar.bz2",
		"https://mirror.example.com/a//b/": "https://mirror.example.com/a/b/ffmpeg-7.2.tar.bz2",
	}
	for base, want := range cases {
		got, err := r.DownloadURL(base)
		require.NoError(t, err)
		require.Equal(t, want, got, base)
	}
}

// TestFromSourceDir recovers releases from link targets.
func TestFromSourceDir(t *testing.T) {
	t.Parallel()

	r, err := FromSourceDir("/home/builder/src/ffmpeg-6.1.1")
	require.NoError(t, err)
	require.Equal(t, "6.1.1", r.Version())

	_, err = FromSourceDir("/home/builder/src/libav-12")
	require.ErrorIs(t, err, errNotSourceDir)

	_, err = FromSourceDir("ffmpeg-")
	require.ErrorIs(t, err, ErrEmptyVersion)
}

// TestCompare orders semantic versions numerically and others lexically.
func TestCompare(t *testing.T) {
	t.Parallel()

	mustNew := func(v string) Release {
		r, err := New(v)
		require.NoError(t, err)

		return r
	}

	require.Equal(t, 1, mustNew("7.10").Compare(mustNew("7.2")))
	require.Equal(t, -1, mustNew("6.1.1").Compare(mustNew("7.0")))
	require.Equal(t, 0, mustNew("7.1").Compare(mustNew("7.1.0")))
	require.Equal(t, -1, mustNew("snapshot-a").Compare(mustNew("snapshot-b")))
}
