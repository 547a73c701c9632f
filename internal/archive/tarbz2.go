package archive

import (
	"archive/tar"
	"bufio"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// defaultDirMode is applied to directories the archive does not describe.
const defaultDirMode os.FileMode = 0o755

// ErrUnsafePath is returned for entries that would land outside the destination.
var ErrUnsafePath = errors.New("archive entry escapes destination directory")

// ExtractTarBz2 unpacks a bzip2-compressed tar archive into destDir.
// Regular files, directories, symbolic links and hard links are restored;
// other entry types are skipped. The context is checked between entries.
func ExtractTarBz2(ctx context.Context, archivePath, destDir string) error {
	archiveFile, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return err
	}

	defer func() {
		_ = archiveFile.Close()
	}()

	destDir, err = filepath.Abs(destDir)
	if err != nil {
		return err
	}

	reader := tar.NewReader(bzip2.NewReader(bufio.NewReader(archiveFile)))

	for {
		if err = ctx.Err(); err != nil {
			return err
		}

		var header *tar.Header

		header, err = reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read %s: %w", archivePath, err)
		}

		if err = extractEntry(destDir, header, reader); err != nil {
			return fmt.Errorf("extract %s: %w", header.Name, err)
		}
	}
}

func extractEntry(destDir string, header *tar.Header, contents io.Reader) error {
	target, err := resolve(destDir, header.Name)
	if err != nil {
		return err
	}

	// Earlier entries may have planted symlinks; nothing is written through them.
	if err = checkNoSymlinks(destDir, filepath.Dir(target)); err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return writeDir(target, header)
	case tar.TypeReg:
		return writeFile(target, header, contents)
	case tar.TypeSymlink:
		return writeSymlink(destDir, target, header.Linkname)
	case tar.TypeLink:
		return writeHardLink(destDir, target, header.Linkname)
	default:
		return nil
	}
}

// resolve maps an archive name to a path inside destDir.
func resolve(destDir, name string) (string, error) {
	name = filepath.FromSlash(name)
	if !filepath.IsLocal(strings.TrimLeft(name, string(filepath.Separator))) {
		return "", fmt.Errorf("%s: %w", name, ErrUnsafePath)
	}

	return filepath.Join(destDir, name), nil
}

func within(destDir, target string) bool {
	return target == destDir || strings.HasPrefix(target, destDir+string(filepath.Separator))
}

// checkNoSymlinks fails when any existing component of dir below destDir is a symlink.
// Components that do not exist yet are created as plain directories later.
func checkNoSymlinks(destDir, dir string) error {
	rel, err := filepath.Rel(destDir, dir)
	if err != nil {
		return err
	}

	if rel == "." {
		return nil
	}

	current := destDir

	for _, component := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, component)

		info, statErr := os.Lstat(current)
		if errors.Is(statErr, os.ErrNotExist) {
			return nil
		}

		if statErr != nil {
			return statErr
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symlink: %w", current, ErrUnsafePath)
		}
	}

	return nil
}

func writeDir(target string, header *tar.Header) error {
	info, err := os.Lstat(target)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%s is a symlink: %w", target, ErrUnsafePath)
	}

	return os.MkdirAll(target, defaultDirMode|header.FileInfo().Mode().Perm())
}

func writeFile(target string, header *tar.Header, contents io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	// A previous entry may have left a symlink here; never write through it.
	if err := removeIfExists(target); err != nil {
		return err
	}

	outputFile, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, header.FileInfo().Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(outputFile, contents); err != nil {
		_ = outputFile.Close()

		return err
	}

	if err = outputFile.Close(); err != nil {
		return err
	}

	return os.Chtimes(target, header.ModTime, header.ModTime)
}

func writeSymlink(destDir, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("link to %s: %w", linkname, ErrUnsafePath)
	}

	if err := checkLinkTarget(destDir, filepath.Dir(target), linkname); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	if err := removeIfExists(target); err != nil {
		return err
	}

	return os.Symlink(linkname, target)
}

// checkLinkTarget follows linkname from dir one component at a time, the way the
// kernel would. Every step must stay inside destDir, and a ".." may not come after
// an existing symlink, since that symlink decides where the parent really is.
func checkLinkTarget(destDir, dir, linkname string) error {
	components := strings.Split(filepath.ToSlash(linkname), "/")
	current := dir

	for i, component := range components {
		switch component {
		case "", ".":
			continue
		case "..":
			current = filepath.Dir(current)
		default:
			current = filepath.Join(current, component)
		}

		if !within(destDir, current) {
			return fmt.Errorf("link to %s: %w", linkname, ErrUnsafePath)
		}

		if i == len(components)-1 || component == ".." {
			continue
		}

		info, err := os.Lstat(current)
		if err == nil && info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("link to %s passes through symlink %s: %w", linkname, current, ErrUnsafePath)
		}
	}

	return nil
}

func writeHardLink(destDir, target, linkname string) error {
	source, err := resolve(destDir, linkname)
	if err != nil {
		return err
	}

	if err = checkNoSymlinks(destDir, filepath.Dir(source)); err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return err
	}

	if err = removeIfExists(target); err != nil {
		return err
	}

	return os.Link(source, target)
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}
