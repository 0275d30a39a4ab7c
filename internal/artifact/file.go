package artifact

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileBackend stores each artifact as Dir/<id>. Kinds share the directory,
// so scale and weight artifacts need distinct ids.
type FileBackend struct {
	Dir string
}

func (b FileBackend) Location(_ Kind, id string) string {
	return filepath.Join(b.Dir, id)
}

func (b FileBackend) Put(_ context.Context, kind Kind, id string, data []byte) error {
	if err := os.MkdirAll(b.Dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.Dir, "."+id+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), b.Location(kind, id))
}

func (b FileBackend) Get(_ context.Context, kind Kind, id string) ([]byte, error) {
	data, err := os.ReadFile(b.Location(kind, id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(ErrNotFound, err.Error())
	}
	return data, err
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return errors.Wrapf(ErrInvalidID, "%q", id)
	}
	return nil
}
