package config

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format for path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.Wrapf(ErrUnsupportedFormat, "%s", path)
}

// Load reads and validates the configuration file at path. Settings absent
// from the file keep their Default values.
func Load(path string) (*Config, error) {
	return LoadFS(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadFS is Load over fsys.
func LoadFS(fsys fs.FS, path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	cfg, err := Parse(path, format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes r over Default without validating. name labels parse
// errors.
func Parse(name string, format Format, r io.Reader) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(r).DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, tomlError(name, err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && err != io.EOF {
			return nil, &DecodeError{File: name, Reason: err.Error(), Err: err}
		}
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", format)
	}
	return cfg, nil
}

func tomlError(name string, err error) error {
	var missing *toml.StrictMissingError
	if errors.As(err, &missing) && len(missing.Errors) > 0 {
		de := missing.Errors[0]
		line, col := de.Position()
		return &DecodeError{
			File:   name,
			Line:   line,
			Column: col,
			Reason: "unknown key " + strings.Join(de.Key(), "."),
			Err:    err,
		}
	}
	var de *toml.DecodeError
	if errors.As(err, &de) {
		line, col := de.Position()
		return &DecodeError{File: name, Line: line, Column: col, Reason: de.Error(), Err: err}
	}
	return &DecodeError{File: name, Reason: err.Error(), Err: err}
}
