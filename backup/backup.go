// Package backup reads the archives produced by `adb backup`.
//
// An archive starts with a short text header:
//
//	ANDROID BACKUP
//	<format version>
//	<1 if the payload is deflated, 0 otherwise>
//	<encryption, "none" for plain archives>
//
// followed by a tar stream, zlib compressed when the flag is set.
package backup

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/mholt/archiver/v3"
)

const magic = "ANDROID BACKUP"

var (
	ErrNotBackup = errors.New("not an android backup archive")
	ErrEncrypted = errors.New("encrypted backups are not supported")
	ErrEmpty     = errors.New("backup archive is empty")
)

// Header is the plain-text preamble of a backup archive.
type Header struct {
	Version    int    `json:"version"`
	Compressed bool   `json:"compressed"`
	Encryption string `json:"encryption"`
}

// Result summarizes an extraction.
type Result struct {
	Header Header   `json:"header"`
	Files  []string `json:"files"`
	Bytes  int64    `json:"bytes"`
}

// ReadHeader consumes the header lines from r.
func ReadHeader(r *bufio.Reader) (Header, error) {
	var h Header

	line, err := readLine(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return h, ErrEmpty
		}
		return h, err
	}
	if line != magic {
		return h, ErrNotBackup
	}

	line, err = readLine(r)
	if err != nil {
		return h, fmt.Errorf("%w: missing version", ErrNotBackup)
	}
	h.Version, err = strconv.Atoi(line)
	if err != nil {
		return h, fmt.Errorf("%w: bad version %q", ErrNotBackup, line)
	}

	line, err = readLine(r)
	if err != nil {
		return h, fmt.Errorf("%w: missing compression flag", ErrNotBackup)
	}
	switch line {
	case "0":
	case "1":
		h.Compressed = true
	default:
		return h, fmt.Errorf("%w: bad compression flag %q", ErrNotBackup, line)
	}

	line, err = readLine(r)
	if err != nil {
		return h, fmt.Errorf("%w: missing encryption", ErrNotBackup)
	}
	h.Encryption = line
	if line != "none" {
		return h, ErrEncrypted
	}

	return h, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimSuffix(line, "\n"), nil
}

// Extract unpacks the archive read from r under destDir.
func Extract(r io.Reader, destDir string) (*Result, error) {
	br := bufio.NewReader(r)

	header, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}

	var payload io.Reader = br
	if header.Compressed {
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to inflate backup: %w", err)
		}
		defer zr.Close()
		payload = zr
	}

	result := &Result{Header: header}
	if err := untar(payload, destDir, result); err != nil {
		return result, err
	}

	return result, nil
}

// ExtractFile unpacks the archive at path under destDir.
func ExtractFile(path, destDir string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Extract(f, destDir)
}

func untar(r io.Reader, destDir string, result *Result) error {
	t := archiver.NewTar()
	if err := t.Open(r, 0); err != nil {
		return fmt.Errorf("failed to open backup payload: %w", err)
	}
	defer t.Close()

	for {
		f, err := t.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read backup payload: %w", err)
		}

		err = extractEntry(f, destDir, result)
		f.Close()
		if err != nil {
			return err
		}
	}
}

func extractEntry(f archiver.File, destDir string, result *Result) error {
	hdr, ok := f.Header.(*tar.Header)
	if !ok {
		return fmt.Errorf("unexpected tar header type %T", f.Header)
	}

	target, err := safeJoin(destDir, hdr.Name)
	if err != nil {
		return err
	}

	switch hdr.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, 0o755)
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		mode := os.FileMode(hdr.Mode).Perm()
		if mode == 0 {
			mode = 0o644
		}

		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o200)
		if err != nil {
			return err
		}

		n, err := io.Copy(out, f)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", hdr.Name, err)
		}

		result.Files = append(result.Files, filepath.ToSlash(hdr.Name))
		result.Bytes += n
		return nil
	default:
		// links and devices have no meaning outside the device
		return nil
	}
}

// safeJoin resolves name under dir and rejects entries that would escape it.
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal path in backup: %s", name)
	}
	return target, nil
}
