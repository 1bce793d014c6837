package launchconfig

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/grovetools/launchsync/config"
	"github.com/grovetools/launchsync/errors"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/sirupsen/logrus"
)

// Reader loads launch.json from a temp folder.
type Reader struct {
	files     FileService
	fileName  string
	validator *launch.Validator
	logger    *logrus.Entry

	// seq numbers reads in the order they start.
	seq atomic.Uint64
}

// NewReader creates a Reader. validator may be nil to skip schema checks.
func NewReader(files FileService, fileName string, validator *launch.Validator, logger *logrus.Entry) *Reader {
	if fileName == "" {
		fileName = config.DefaultFileName
	}
	return &Reader{
		files:     files,
		fileName:  fileName,
		validator: validator,
		logger:    logger,
	}
}

// FileName is the base name of the launch file.
func (r *Reader) FileName() string {
	return r.fileName
}

// FilePath is the launch file location inside folder.
func (r *Reader) FilePath(folder TempFolder) string {
	return filepath.Join(folder.Path, r.fileName)
}

// Read loads the launch file. A missing file is not an error: the result is
// launch.Missing for the folder. Any other read, parse or schema failure is
// logged and returned.
func (r *Reader) Read(ctx context.Context, folder TempFolder) (launch.Content, error) {
	seq := r.seq.Add(1)
	path := r.FilePath(folder)

	data, err := r.files.Read(ctx, path)
	if err != nil {
		if errors.Is(err, errors.ErrCodeFileNotFound) {
			r.logger.WithField("path", path).Debug("No launch file yet")
			return launch.Missing(folder.Path, seq), nil
		}
		r.logger.WithError(err).WithField("path", path).Error("Failed to read launch file")
		if errors.Is(err, errors.ErrCodeIOFailure) {
			return launch.Content{}, err
		}
		return launch.Content{}, errors.IOFailure("read", path, err)
	}

	f, err := launch.Parse(data)
	if err != nil {
		r.logger.WithError(err).WithField("path", path).Error("Failed to parse launch file")
		return launch.Content{}, errors.ParseFailure(path, err)
	}

	if r.validator != nil {
		if err := r.validator.Validate(data); err != nil {
			r.logger.WithError(err).WithField("path", path).Error("Launch file does not match the schema")
			return launch.Content{}, errors.SchemaValidation(path, err)
		}
	}

	return launch.Present(path, folder.Path, f.Configurations, seq), nil
}

// Write stores configurations as the folder's launch file with an empty
// compounds list.
func (r *Reader) Write(ctx context.Context, folder TempFolder, configs []launch.Configuration) error {
	path := r.FilePath(folder)
	data, err := launch.Encode(configs)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode launch file").WithDetail("path", path)
	}
	if err := r.files.Write(ctx, path, data); err != nil {
		r.logger.WithError(err).WithField("path", path).Error("Failed to write launch file")
		if errors.Is(err, errors.ErrCodeIOFailure) {
			return err
		}
		return errors.IOFailure("write", path, err)
	}
	return nil
}
