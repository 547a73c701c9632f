package release

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

const (
	// namePrefix starts every release tarball and source directory name.
	namePrefix = "ffmpeg-"
	// tarballExtension is the archive format published on the release page.
	tarballExtension = ".tar.bz2"
)

var (
	// ErrEmptyVersion is returned for blank version strings.
	ErrEmptyVersion = errors.New("version must not be empty")
	// ErrInvalidVersion is returned for versions that cannot name a single file.
	ErrInvalidVersion = errors.New("version must not contain path separators")
	// errNotSourceDir is returned when a directory name does not follow ffmpeg-<version>.
	errNotSourceDir = errors.New("not an ffmpeg source directory name")
)

// Release names the files that belong to one FFmpeg release.
type Release struct {
	version string
}

// New returns the release for a version string such as "7.2".
// The string is kept verbatim and is not required to be a semantic version,
// but it must stay a single path component once prefixed with "ffmpeg-".
func New(version string) (Release, error) {
	if strings.TrimSpace(version) == "" {
		return Release{}, ErrEmptyVersion
	}

	r := Release{version: version}

	sourceDir := r.SourceDir()
	if strings.ContainsAny(version, "/\\\x00") || filepath.Base(sourceDir) != sourceDir {
		return Release{}, fmt.Errorf("%q: %w", version, ErrInvalidVersion)
	}

	return r, nil
}

// FromSourceDir recovers the release from an extracted directory name or path.
func FromSourceDir(dir string) (Release, error) {
	base := path.Base(strings.ReplaceAll(dir, "\\", "/"))

	version, found := strings.CutPrefix(base, namePrefix)
	if !found {
		return Release{}, fmt.Errorf("%s: %w", dir, errNotSourceDir)
	}

	return New(version)
}

// Version returns the version string.
func (r Release) Version() string {
	return r.version
}

// TarballName returns ffmpeg-<version>.tar.bz2.
func (r Release) TarballName() string {
	return r.SourceDir() + tarballExtension
}

// SourceDir returns ffmpeg-<version>, the directory the tarball unpacks into.
func (r Release) SourceDir() string {
	return namePrefix + r.version
}

// DownloadURL appends the tarball name to the release folder URL.
func (r Release) DownloadURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	// path.Join drops duplicate slashes between the folder and the file.
	u.Path = path.Join("/", u.Path, r.TarballName())

	return u.String(), nil
}

// Semantic parses the version as a semantic version.
func (r Release) Semantic() (*goversion.Version, error) {
	return goversion.NewVersion(r.version)
}

// Compare returns -1, 0 or 1 when r is older than, equal to or newer than other.
// Versions that do not parse are compared as plain strings.
func (r Release) Compare(other Release) int {
	mine, errMine := r.Semantic()
	theirs, errTheirs := other.Semantic()

	if errMine != nil || errTheirs != nil {
		return strings.Compare(r.version, other.version)
	}

	return mine.Compare(theirs)
}
