package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ZipCreator bundles rendered images under a single directory inside the archive.
type ZipCreator struct {
	dir string
}

func NewZipCreator(dir string) *ZipCreator {
	return &ZipCreator{dir: dir}
}

func (z *ZipCreator) CreateZip(ctx context.Context, filePaths []string, outputPath string) (err error) {
	zipFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer func() {
		if cerr := zipFile.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close zip file: %w", cerr)
		}
	}()

	zipWriter := zip.NewWriter(zipFile)

	seen := make(map[string]bool, len(filePaths))
	for _, fp := range filePaths {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		name := z.entryName(fp)
		if seen[name] {
			return fmt.Errorf("duplicate zip entry %q", name)
		}
		seen[name] = true

		if err := addFileToZip(zipWriter, fp, name); err != nil {
			return fmt.Errorf("add %s to zip: %w", fp, err)
		}
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("finish zip: %w", err)
	}
	return nil
}

func (z *ZipCreator) entryName(path string) string {
	if z.dir == "" {
		return filepath.Base(path)
	}
	return z.dir + "/" + filepath.Base(path)
}

func addFileToZip(zw *zip.Writer, filename, name string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = name
	// PNGs are already compressed
	header.Method = zip.Store

	writer, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(writer, file)
	return err
}
