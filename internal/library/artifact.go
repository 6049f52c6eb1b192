package library

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// copyArtifact copies src to dst and carries over permission bits and
// modification time. A partially written dst is removed on failure.
func copyArtifact(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}

	return errors.Join(
		os.Chmod(dst, info.Mode().Perm()),
		os.Chtimes(dst, info.ModTime(), info.ModTime()),
	)
}
