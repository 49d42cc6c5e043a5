package installer

import (
	"archive/tar"    // For reading .tar archives
	"archive/zip"    // For reading .zip archives
	"compress/bzip2" // For reading .bz2 compressed data
	"compress/gzip"  // For reading .gz compressed data
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip" // For reading .7z archives
	"github.com/xi2/xz"          // For reading .xz compressed data

	"radlab-launcher/internal/logger"
)

// ExtractArchive unpacks src into dest based on its extension and returns the
// path of the archive's top-level entry (e.g. dest/google-cloud-sdk).
func ExtractArchive(src, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}

	switch {
	case strings.HasSuffix(src, ".zip"):
		logger.Debug("[DEBUG] compression type is zip\n")
		return extractZip(src, dest)
	case strings.HasSuffix(src, ".7z"):
		logger.Debug("[DEBUG] compression type is .7z\n")
		return extract7z(src, dest)
	case strings.HasSuffix(src, ".tar"), strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"),
		strings.HasSuffix(src, ".tar.bz2"), strings.HasSuffix(src, ".tar.xz"):
		logger.Debug("[DEBUG] compression type is .tar.*\n")
		return extractTarArchive(src, dest)
	default:
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}
}

// safeJoin resolves an archive entry name under dest and rejects entries escaping it.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !within(filepath.Clean(dest), target) {
		return "", fmt.Errorf("archive entry %q escapes %s", name, dest)
	}
	return target, nil
}

func within(root, p string) bool {
	return p == root || strings.HasPrefix(p, root+string(os.PathSeparator))
}

// maxLinkDepth bounds link chains the way the kernel's ELOOP limit does.
const maxLinkDepth = 40

// resolveOnDisk walks rel from base one element at a time, following symlinks
// that already exist on disk, and fails when the result leaves root.
// root and base must already be free of symlinks.
func resolveOnDisk(root, base, rel string) (string, error) {
	return resolveLinks(root, base, rel, 0)
}

func resolveLinks(root, base, rel string, depth int) (string, error) {
	if depth > maxLinkDepth {
		return "", fmt.Errorf("too many levels of symbolic links in %q", rel)
	}
	cur := base
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			continue
		}
		cur = filepath.Join(cur, part)
		fi, err := os.Lstat(cur)
		if err != nil || fi.Mode()&os.ModeSymlink == 0 {
			continue
		}
		link, err := os.Readlink(cur)
		if err != nil {
			return "", err
		}
		from := filepath.Dir(cur)
		if filepath.IsAbs(link) {
			from = string(os.PathSeparator)
		}
		if cur, err = resolveLinks(root, from, link, depth+1); err != nil {
			return "", err
		}
	}
	if !within(root, cur) {
		return "", fmt.Errorf("archive path %q resolves outside %s", rel, root)
	}
	return cur, nil
}

// entryTarget returns where an entry is written. The parent directory is resolved
// element by element through links created by earlier entries, so a chain of
// in-tree looking links cannot redirect the write outside root.
func entryTarget(root, name string) (string, error) {
	if _, err := safeJoin(root, name); err != nil {
		return "", err
	}
	name = strings.TrimRight(filepath.ToSlash(name), "/")
	if name == "" {
		return root, nil
	}
	parent, err := resolveOnDisk(root, root, path.Dir(name))
	if err != nil {
		return "", err
	}
	target := filepath.Join(parent, path.Base(name))
	if !within(root, target) {
		return "", fmt.Errorf("archive entry %q resolves outside %s", name, root)
	}
	return target, nil
}

// realDir returns dest with every symlink resolved.
func realDir(dest string) (string, error) {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(dest)
}

// topLevelOf returns the first path element of an archive entry name.
func topLevelOf(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	return strings.SplitN(name, "/", 2)[0]
}

// writeEntry creates target with mode and copies r into it.
func writeEntry(target string, mode fs.FileMode, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode.Perm() == 0 {
		mode = 0644
	}
	if fi, err := os.Lstat(target); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// extractTarArchive handles tar and compressed tar variants.
func extractTarArchive(src, dest string) (string, error) {
	logger.Debug("[DEBUG] uncompressing %s to %s\n", src, dest)
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var reader io.Reader = f
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		gr, err := gzip.NewReader(f)
		if err != nil {
			return "", err
		}
		defer gr.Close()
		reader = gr
	case strings.HasSuffix(src, ".tar.bz2"):
		reader = bzip2.NewReader(f)
	case strings.HasSuffix(src, ".tar.xz"):
		xzr, err := xz.NewReader(f, 0)
		if err != nil {
			return "", err
		}
		reader = xzr
	}

	root, err := realDir(dest)
	if err != nil {
		return "", err
	}

	tr := tar.NewReader(reader)
	var topLevel string

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		if topLevel == "" {
			topLevel = topLevelOf(hdr.Name)
		}

		target, err := entryTarget(root, hdr.Name)
		if err != nil {
			return "", err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := writeEntry(target, fs.FileMode(hdr.Mode), tr); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			// Only relative links that stay inside the tree are allowed.
			if filepath.IsAbs(hdr.Linkname) {
				return "", fmt.Errorf("archive link %q points outside %s", hdr.Name, dest)
			}
			if _, err := resolveOnDisk(root, filepath.Dir(target), hdr.Linkname); err != nil {
				return "", fmt.Errorf("archive link %q: %w", hdr.Name, err)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return "", err
			}
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// extractZip extracts a .zip archive.
func extractZip(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer r.Close()

	root, err := realDir(dest)
	if err != nil {
		return "", err
	}

	var topLevel string
	for _, f := range r.File {
		if topLevel == "" {
			topLevel = topLevelOf(f.Name)
		}
		target, err := entryTarget(root, f.Name)
		if err != nil {
			return "", err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(target, f.Mode(), rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// extract7z handles .7z extraction using the sevenzip library.
func extract7z(src, dest string) (string, error) {
	r, err := sevenzip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer r.Close()

	root, err := realDir(dest)
	if err != nil {
		return "", err
	}

	var topLevel string
	for _, f := range r.File {
		if topLevel == "" {
			topLevel = topLevelOf(f.Name)
		}
		target, err := entryTarget(root, f.Name)
		if err != nil {
			return "", err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return "", err
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		err = writeEntry(target, f.Mode(), rc)
		rc.Close()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dest, topLevel), nil
}

// findExecutables walks root and returns executable regular files whose name starts with prefix.
func findExecutables(root, prefix string) ([]string, error) {
	logger.Debug("[DEBUG] Scanning %s for executables named %s*\n", root, prefix)
	var executables []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), prefix) {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			logger.Debug("[DEBUG] Failed to stat %s: %v\n", path, err)
			return nil
		}
		if info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0 {
			executables = append(executables, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(executables) == 0 {
		return nil, fmt.Errorf("no executables named %s found in %s", prefix, root)
	}
	return executables, nil
}
