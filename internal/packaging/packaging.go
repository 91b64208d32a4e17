// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package packaging copies static resources into the HTML bundle, archives
// the bundle, places the PDFs at the output root and removes temporary
// files.
package packaging

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveSuffix is appended to the bundle directory name to form the archive name.
const ArchiveSuffix = ".tar.gz"

// CopyTree copies the directory src to dst, creating dst. Symlinks are
// skipped.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("reading resources: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("resources %s is not a directory", src)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return CopyFile(path, target)
		default:
			return nil
		}
	})
}

// CopyFile copies src to dst, replacing dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	return out.Close()
}

// Archive writes dir as a gzip-compressed tarball at dir + ArchiveSuffix.
// Entry names are relative to dir's parent, so the archive unpacks into a
// directory named like dir. It returns the archive path.
func Archive(dir string) (string, error) {
	dir = filepath.Clean(dir)
	archivePath := dir + ArchiveSuffix
	root := filepath.Dir(dir)

	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		return copyInto(tw, path)
	})

	// Close in order; the first error wins.
	errs := []error{walkErr, tw.Close(), gz.Close(), f.Close()}
	for _, e := range errs {
		if e != nil {
			os.Remove(archivePath)
			return "", fmt.Errorf("archiving %s: %w", filepath.Base(dir), e)
		}
	}
	return archivePath, nil
}

func copyInto(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// ListArchive returns the entry names of a .tar.gz archive in order.
func ListArchive(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	defer gz.Close()

	var names []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return names, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
		}
		names = append(names, hdr.Name)
	}
}

// Cleanup removes the temporary files and, unless keepHTML is set, the
// uncompressed HTML directory. Missing paths are not an error. Progress goes
// to w.
func Cleanup(htmlDir string, temps []string, keepHTML bool, w io.Writer) error {
	var failed []string
	for _, p := range temps {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			failed = append(failed, p)
		}
	}
	if !keepHTML && htmlDir != "" {
		if err := os.RemoveAll(htmlDir); err != nil {
			failed = append(failed, htmlDir)
		} else {
			fmt.Fprintf(w, "  removed %s\n", filepath.Base(htmlDir))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("cleanup could not remove: %s", strings.Join(failed, ", "))
	}
	return nil
}
