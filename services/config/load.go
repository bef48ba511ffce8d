//go:build !rp2040

package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"leakguard-go/errcode"
)

// Decode overlays the YAML document in r onto c. Unknown keys are errors.
// An empty document leaves c unchanged.
func Decode(r io.Reader, c *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errcode.Wrap(errcode.InvalidConfig, "config_decode", err)
	}
	return nil
}

// DecodeTOML is Decode for TOML documents.
func DecodeTOML(r io.Reader, c *Config) error {
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return errcode.Wrap(errcode.InvalidConfig, "config_decode", err)
	}
	if un := md.Undecoded(); len(un) > 0 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config_decode", Msg: "unknown key " + un[0].String()}
	}
	return nil
}

// Load builds a configuration from Default, the named board profile (may be
// empty) and the file at path (may be empty), then validates it. Files ending
// in .toml are read as TOML, anything else as YAML.
func Load(board, path string) (Config, error) {
	c := Default()
	if board != "" {
		raw, ok := ProfileLookup(board)
		if !ok {
			return c, &errcode.E{C: errcode.InvalidConfig, Op: "config_load", Msg: "unknown board " + board}
		}
		if err := Decode(bytes.NewReader(raw), &c); err != nil {
			return c, err
		}
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return c, errcode.Wrap(errcode.InvalidConfig, "config_load", err)
		}
		defer f.Close()
		decode := Decode
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			decode = DecodeTOML
		}
		if err := decode(f, &c); err != nil {
			return c, err
		}
	}
	return c, c.Validate()
}
