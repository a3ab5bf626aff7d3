// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"go.yaml.in/yaml/v3"
)

// configDecoder returns the decoder for the config file at path, based on
// its extension.
func configDecoder(path string) (func([]byte, interface{}) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return yaml.Unmarshal, nil

	case ".toml":
		return toml.Unmarshal, nil
	}

	return nil, fmt.Errorf("config file %q: unsupported format, use .yaml, .yml, .json or .toml", path)
}

// readConfig reads the config file. The result is nil if the file doesn't
// exist.
func (c *Command) readConfig() (map[string]interface{}, error) {
	decode, err := configDecoder(c.configFile)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.configFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("config file not found", "path", c.configFile)
			return nil, nil
		}

		return nil, fmt.Errorf("config file %q: %w", c.configFile, err)
	}

	var result map[string]interface{}
	if err := decode(data, &result); err != nil {
		return nil, fmt.Errorf("config file %q: %w", c.configFile, err)
	}

	return result, nil
}

// seeds returns the values for the options that are set in the config
// file or the environment, keyed by option name. The environment takes
// precedence over the config file.
func (c *Command) seeds(options []*Option) (map[string]interface{}, error) {
	byName := make(map[string]*Option, len(options))
	for _, opt := range options {
		byName[normalizeName(opt.Name)] = opt
	}

	result := map[string]interface{}{}

	var err error
	if c.configFile != "" {
		values, e := c.readConfig()
		if e != nil {
			return nil, e
		}

		if e := c.seedConfig(result, byName, "", values); e != nil {
			err = multierror.Append(err, e)
		}
	}

	if c.envPrefix != "" {
		for _, opt := range options {
			if opt.Positional {
				continue
			}

			key := envKey(c.envPrefix, opt.Name)
			raw, ok := os.LookupEnv(key)
			if !ok {
				continue
			}

			v, e := parseOver(opt, raw, result[opt.Name])
			if e != nil {
				err = multierror.Append(err, fmt.Errorf("environment variable %s: %w", key, e))
				continue
			}

			c.logger.Trace("value from environment", "name", opt.Name, "key", key)
			result[opt.Name] = v
		}
	}

	return result, err
}

// seedConfig sets the values of a decoded config file on result. Tables
// that don't name an option are read as the options of a nested command.
func (c *Command) seedConfig(
	result map[string]interface{},
	byName map[string]*Option,
	prefix string,
	values map[string]interface{},
) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var err error
	for _, k := range keys {
		name := prefix + k
		raw := values[k]

		opt, ok := byName[normalizeName(name)]
		if !ok {
			if table, ok := raw.(map[string]interface{}); ok {
				if e := c.seedConfig(result, byName, name+".", table); e != nil {
					err = multierror.Append(err, e)
				}

				continue
			}

			c.logger.Warn("ignoring unknown key in config file", "path", c.configFile, "key", name)
			continue
		}

		if opt.Positional {
			c.logger.Warn("positional arguments can't be set in the config file",
				"path", c.configFile, "key", name)
			continue
		}

		v, e := seedValue(opt, raw)
		if e != nil {
			err = multierror.Append(err, fmt.Errorf("config file %q: key %q: %w", c.configFile, name, e))
			continue
		}

		c.logger.Trace("value from config file", "name", opt.Name)
		result[opt.Name] = v
	}

	return err
}

// seedValue converts a value decoded from a config file for opt. Strings
// are read the same way as on the command-line.
func seedValue(opt *Option, raw interface{}) (interface{}, error) {
	if s, ok := raw.(string); ok {
		return opt.Parse(s)
	}

	switch opt.Kind {
	case KindEnum:
		return nil, &ValueError{
			Value:  fmt.Sprint(raw),
			Reason: fmt.Sprintf("choose from %s", strings.Join(opt.Choices, ", ")),
		}

	case KindDict:
		return decodeInto(raw, opt.Type, reflect.ValueOf(opt.Default))
	}

	return decodeInto(raw, opt.Type, reflect.Value{})
}

var envReplacer = strings.NewReplacer("-", "_", ".", "_")

// envKey returns the environment variable for the option name.
func envKey(prefix, name string) string {
	return strings.ToUpper(strings.TrimSuffix(prefix, "_") + "_" + envReplacer.Replace(name))
}
