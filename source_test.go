// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestCommandConfigFile(t *testing.T) {
	cases := []struct {
		Name     string
		File     string
		Contents string
	}{
		{
			"yaml",
			"config.yaml",
			`
text: Hi
exclamation:
  number: 3
  use: true
tags: {b: 2}
sizes: [4, 5]
unknown: 1
`,
		},

		{
			"json",
			"config.json",
			`{
  "text": "Hi",
  "exclamation": {"number": 3, "use": true},
  "tags": {"b": 2},
  "sizes": [4, 5],
  "unknown": 1
}`,
		},

		{
			"toml",
			"config.toml",
			`
text = "Hi"
tags = { b = 2 }
sizes = [4, 5]
unknown = 1

[exclamation]
number = 3
use = true
`,
		},

		{
			"dotted keys",
			"config.yaml",
			`
text: Hi
exclamation.number: 3
tags: '{"b": 2}'
sizes: "[4, 5]"
`,
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			path := writeConfig(t, tt.File, tt.Contents)
			c, _, _ := testCommand(t, greet, greetDefaults(), ConfigFile(path))

			result := c.Call([]string{})
			require.NoError(result.Err())
			require.Equal("Hi!!! en_US a=1 b=2 4 5", result.Out(0))
		})
	}
}

func TestCommandConfigFile_precedence(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
a: 10
b: 20
c: file
`)

	t.Run("file over defaults", func(t *testing.T) {
		require := require.New(t)

		c, _, _ := testCommand(t, hello, helloDefaults(), ConfigFile(path))
		result := c.Call([]string{"X"})
		require.NoError(result.Err())
		require.Equal(map[string]interface{}{"x": "X", "a": 10, "b": 20, "c": "file", "d": true}, result.Out(0))
	})

	t.Run("environment over file", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("HELLO_B", "30")
		c, _, _ := testCommand(t, hello, helloDefaults(), ConfigFile(path), EnvPrefix("HELLO"))
		result := c.Call([]string{"X"})
		require.NoError(result.Err())
		require.Equal(map[string]interface{}{"x": "X", "a": 10, "b": 30, "c": "file", "d": true}, result.Out(0))
	})

	t.Run("flags over environment", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("HELLO_B", "30")
		t.Setenv("HELLO_D", "false")
		c, _, _ := testCommand(t, hello, helloDefaults(), ConfigFile(path), EnvPrefix("HELLO_"))
		result := c.Call([]string{"X", "--b", "40", "--a", "50"})
		require.NoError(result.Err())
		require.Equal(map[string]interface{}{"x": "X", "a": 50, "b": 40, "c": "file", "d": false}, result.Out(0))
	})

	t.Run("help shows the effective default", func(t *testing.T) {
		require := require.New(t)

		c, out, _ := testCommand(t, hello, helloDefaults(), ConfigFile(path))
		_, err := c.Parse([]string{"--help"})
		require.Equal(ErrHelp, err)
		require.Contains(out.String(), "(default 10)")
	})
}

func TestCommandConfigFile_dictPrecedence(t *testing.T) {
	tags := func(in struct {
		Struct

		Tags map[string]interface{}
	}) map[string]interface{} {
		return in.Tags
	}
	defaults := []Arg{Named("tags", map[string]interface{}{"a": 1})}

	path := writeConfig(t, "config.yaml", `
tags: {a: 5, c: 7}
`)

	cases := []struct {
		Name string
		Env  string
		Args []string
		Out  map[string]interface{}
	}{
		{
			"file",
			"",
			[]string{},
			map[string]interface{}{"a": 5, "c": 7},
		},

		{
			"flag merges over file",
			"",
			[]string{"--tags", `{"b": 2}`},
			map[string]interface{}{"a": 5, "b": 2, "c": 7},
		},

		{
			"environment merges over file",
			`{"c": 8}`,
			[]string{},
			map[string]interface{}{"a": 5, "c": 8},
		},

		{
			"flag merges over environment",
			`{"c": 8}`,
			[]string{"--tags", `{a: 6}`},
			map[string]interface{}{"a": 6, "c": 8},
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			if tt.Env != "" {
				t.Setenv("TAGS_TAGS", tt.Env)
			}

			c, _, _ := testCommand(t, tags, defaults, ConfigFile(path), EnvPrefix("tags"))
			result := c.Call(tt.Args)
			require.NoError(result.Err())
			require.Equal(tt.Out, result.Out(0))
		})
	}
}

func TestCommandConfigFile_missing(t *testing.T) {
	require := require.New(t)

	path := filepath.Join(t.TempDir(), "missing.yaml")
	c, _, _ := testCommand(t, hello, helloDefaults(), ConfigFile(path))
	result := c.Call([]string{"X"})
	require.NoError(result.Err())
	require.Equal(1, result.Out(0).(map[string]interface{})["a"])
}

func TestCommandConfigFile_invalid(t *testing.T) {
	cases := []struct {
		Name     string
		File     string
		Contents string
		Err      string
	}{
		{
			"syntax",
			"config.yaml",
			"a: [1",
			"config file",
		},

		{
			"wrong type",
			"config.yaml",
			"a: [1, 2]",
			`key "a"`,
		},

		{
			"bad text",
			"config.toml",
			`d = "yes"`,
			`expected either "true" or "false"`,
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			path := writeConfig(t, tt.File, tt.Contents)
			c, _, _ := testCommand(t, hello, helloDefaults(), ConfigFile(path))
			result := c.Call([]string{"X"})
			require.Error(result.Err())
			require.Contains(result.Err().Error(), tt.Err)
		})
	}
}

func TestCommandConfigFile_nestedRequired(t *testing.T) {
	require := require.New(t)

	inner := MustFunc(NewFunc(func(in struct {
		Struct

		Level string `flagmapper:",required"`
	}) string {
		return in.Level
	}))

	path := writeConfig(t, "config.toml", `
[inner]
level = "info"
`)

	c, _, _ := testCommand(t, func(in struct {
		Struct

		Inner *Func
	}) string {
		result := in.Inner.Call()
		return result.Out(0).(string)
	}, []Arg{Named("inner", inner)}, ConfigFile(path))

	result := c.Call([]string{})
	require.NoError(result.Err())
	require.Equal("info", result.Out(0))
}

func TestCommandEnv(t *testing.T) {
	t.Run("nested and structured", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("GREET_EXCLAMATION_NUMBER", "1")
		t.Setenv("GREET_LANGUAGE", "hi_IN")
		t.Setenv("GREET_TAGS", `{"b": 7}`)

		c, _, _ := testCommand(t, greet, greetDefaults(), EnvPrefix("greet"))
		result := c.Call([]string{})
		require.NoError(result.Err())
		require.Equal("Hello world! hi_IN a=1 b=7", result.Out(0))
	})

	t.Run("invalid value", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("GREET_EXCLAMATION_USE", "yes")

		c, _, _ := testCommand(t, greet, greetDefaults(), EnvPrefix("GREET"))
		result := c.Call([]string{})
		require.Error(result.Err())
		require.Contains(result.Err().Error(), "GREET_EXCLAMATION_USE")
	})
}

func TestEnvKey(t *testing.T) {
	require := require.New(t)

	require.Equal("APP_EXCLAMATION_NUMBER", envKey("app", "exclamation.number"))
	require.Equal("APP_URL_PATH", envKey("APP_", "url-path"))
}
