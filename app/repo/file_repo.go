package repo

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/suhendararyadi/lppm-iaipi-mhs/app/model"
)

const filesRoute = "/api/v1/files/"

// FileRepository keeps uploaded supporting documents and hands out the
// URLs the API serves them from.
type FileRepository interface {
	Save(owner uuid.UUID, fh *multipart.FileHeader) (model.Attachment, error)
	Path(name string) (string, error)
	Delete(name string) error
}

type LocalFileRepo struct {
	Dir string
}

func NewLocalFileRepo(dir string) (*LocalFileRepo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	return &LocalFileRepo{Dir: dir}, nil
}

func (r *LocalFileRepo) Save(owner uuid.UUID, fh *multipart.FileHeader) (model.Attachment, error) {
	src, err := fh.Open()
	if err != nil {
		return model.Attachment{}, errors.Wrap(err, "open upload")
	}
	defer src.Close()
	return r.store(owner, filepath.Base(fh.Filename), src)
}

// store writes src under a unique name. A partly written file is removed.
func (r *LocalFileRepo) store(owner uuid.UUID, original string, src io.Reader) (model.Attachment, error) {
	stored := fmt.Sprintf("%s_%d_%s", owner.String(), time.Now().UnixNano(), sanitizeFileName(original))
	p := filepath.Join(r.Dir, stored)

	dst, err := os.Create(p)
	if err != nil {
		return model.Attachment{}, errors.Wrap(err, "create stored file")
	}
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(p)
		return model.Attachment{}, errors.Wrap(err, "write stored file")
	}

	return model.Attachment{
		FileName:   original,
		FileURL:    filesRoute + stored,
		FileType:   strings.ToLower(filepath.Ext(original)),
		UploadedAt: time.Now(),
	}, nil
}

// Path resolves a stored name, rejecting anything that escapes Dir.
func (r *LocalFileRepo) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrNotFound
	}
	p := filepath.Join(r.Dir, name)
	if _, err := os.Stat(p); err != nil {
		return "", ErrNotFound
	}
	return p, nil
}

func (r *LocalFileRepo) Delete(name string) error {
	p, err := r.Path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// StoredName extracts the stored file name from an attachment URL.
func StoredName(fileURL string) string {
	return strings.TrimPrefix(fileURL, filesRoute)
}

func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
