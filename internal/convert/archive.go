package convert

import (
	"io"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// archiveEntry maps a file on disk to its name inside an archive
type archiveEntry struct {
	Name string
	Path string
}

// writeKMZ writes a deflate-compressed zip at dst holding entries in order.
// A partially written archive is removed.
func writeKMZ(fs afero.Fs, dst string, entries []archiveEntry) (err error) {
	f, err := fs.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", dst)
		}
		if err != nil {
			fs.Remove(dst)
		}
	}()

	zw := zip.NewWriter(f)
	for _, entry := range entries {
		if err := addEntry(fs, zw, entry); err != nil {
			return err
		}
	}
	return errors.Wrap(zw.Close(), "finalize archive")
}

func addEntry(fs afero.Fs, zw *zip.Writer, entry archiveEntry) error {
	src, err := fs.Open(entry.Path)
	if err != nil {
		return errors.Wrapf(err, "open %s", entry.Path)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", entry.Path)
	}

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return errors.Wrapf(err, "header for %s", entry.Path)
	}
	hdr.Name = entry.Name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return errors.Wrapf(err, "add %s", entry.Name)
	}
	if _, err := io.Copy(w, src); err != nil {
		return errors.Wrapf(err, "write %s", entry.Name)
	}
	return nil
}
