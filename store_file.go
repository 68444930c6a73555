// store_file.go: File-backed store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	goerrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agilira/go-errors"
)

// FileStore keeps the tree in a single file. The codec is chosen from the
// file extension unless one is given explicitly.
type FileStore struct {
	path  string
	codec Codec
	perm  os.FileMode
}

// NewFileStore creates a store for path, detecting the format from its
// extension.
func NewFileStore(path string) (*FileStore, error) {
	codec, err := CodecForFile(path)
	if err != nil {
		return nil, err
	}
	return NewFileStoreWithCodec(path, codec), nil
}

// NewFileStoreWithCodec creates a store for path using codec.
func NewFileStoreWithCodec(path string, codec Codec) *FileStore {
	return &FileStore{path: filepath.Clean(path), codec: codec, perm: 0644}
}

// Name returns the file path.
func (s *FileStore) Name() string { return s.path }

// Path returns the file path.
func (s *FileStore) Path() string { return s.path }

// Codec returns the codec used for the file.
func (s *FileStore) Codec() Codec { return s.codec }

// Load reads and decodes the file. A missing file yields an empty tree.
func (s *FileStore) Load() (*Section, error) {
	data, err := os.ReadFile(s.path)
	if goerrors.Is(err, fs.ErrNotExist) {
		return NewSection(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "failed to read configuration file").WithContext("path", s.path)
	}
	root, err := s.codec.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "failed to decode configuration file").WithContext("path", s.path)
	}
	return root, nil
}

// Save encodes root and replaces the file atomically: the data is written
// to a temporary file in the same directory and renamed over the target.
func (s *FileStore) Save(root *Section) error {
	data, err := s.codec.Encode(root)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.Wrap(err, ErrCodeIO, "failed to create configuration directory").WithContext("path", s.path)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp.*")
	if err != nil {
		return errors.Wrap(err, ErrCodeIO, "failed to create temporary file").WithContext("path", s.path)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, ErrCodeIO, "failed to write temporary file").WithContext("path", s.path)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, ErrCodeIO, "failed to write temporary file").WithContext("path", s.path)
	}
	if err := os.Chmod(tmpPath, s.perm); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, ErrCodeIO, "failed to set file permissions").WithContext("path", s.path)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, ErrCodeIO, "failed to replace configuration file").WithContext("path", s.path)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save.
func (s *FileStore) Close() error { return nil }
