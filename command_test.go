// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

type helloInput struct {
	Struct

	X string `flagmapper:",required"`
	A int
	B int
	C string `flagmapper:",short=c" help:"the c value"`
	D bool
}

func hello(in helloInput) map[string]interface{} {
	return map[string]interface{}{
		"x": in.X,
		"a": in.A,
		"b": in.B,
		"c": in.C,
		"d": in.D,
	}
}

func helloDefaults() []Arg {
	return []Arg{
		Defaults(helloInput{A: 1, B: 2, C: "C", D: true}),
	}
}

func kwargs(in struct {
	Struct

	Kw map[string]string `flagmapper:",extra"`
}) map[string]string {
	return in.Kw
}

// testCommand returns the command for f, writing output to the returned
// buffers.
func testCommand(t *testing.T, f interface{}, args []Arg, opts ...CommandOption) (*Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	fn, err := NewFunc(f, args...)
	require.NoError(t, err)

	opts = append([]CommandOption{
		Use("hello"),
		WithOutput(&out, &errOut),
	}, opts...)

	c, err := NewCommand(fn, opts...)
	require.NoError(t, err)

	return c, &out, &errOut
}

func TestCommandCall(t *testing.T) {
	cases := []struct {
		Name     string
		Callback interface{}
		Defaults []Arg
		Args     string
		Out      interface{}
		Err      string
	}{
		{
			"positional only",
			hello,
			helloDefaults(),
			"X",
			map[string]interface{}{"x": "X", "a": 1, "b": 2, "c": "C", "d": true},
			"",
		},

		{
			"flags",
			hello,
			helloDefaults(),
			"Y --a 2 --c D",
			map[string]interface{}{"x": "Y", "a": 2, "b": 2, "c": "D", "d": true},
			"",
		},

		{
			"flags before positional",
			hello,
			helloDefaults(),
			"--a=3 -c E Z",
			map[string]interface{}{"x": "Z", "a": 3, "b": 2, "c": "E", "d": true},
			"",
		},

		{
			"bool",
			hello,
			helloDefaults(),
			"Y --a 2 --c D --d false",
			map[string]interface{}{"x": "Y", "a": 2, "b": 2, "c": "D", "d": false},
			"",
		},

		{
			"bool rejects other tokens",
			hello,
			helloDefaults(),
			"Y --d False",
			nil,
			`expected either "true" or "false"`,
		},

		{
			"bool needs a value",
			hello,
			helloDefaults(),
			"Y --d",
			nil,
			"needs an argument",
		},

		{
			"int rejects text",
			hello,
			helloDefaults(),
			"Y --a two",
			nil,
			`invalid argument "two"`,
		},

		{
			"missing positional",
			hello,
			helloDefaults(),
			"--a 2",
			nil,
			"accepts 1 arg(s), received 0",
		},

		{
			"too many positionals",
			hello,
			helloDefaults(),
			"X Y",
			nil,
			"accepts 1 arg(s), received 2",
		},

		{
			"unknown flag",
			hello,
			helloDefaults(),
			"X --e 1",
			nil,
			"unknown flag: --e",
		},

		{
			"extra flags",
			kwargs,
			nil,
			"--a 2 --b abc",
			map[string]string{"a": "2", "b": "abc"},
			"",
		},

		{
			"extra flags with equals",
			kwargs,
			nil,
			"--a=2 --b abc --d False",
			map[string]string{"a": "2", "b": "abc", "d": "False"},
			"",
		},

		{
			"extra flags stop at terminator",
			kwargs,
			nil,
			"--a 2 -- --b",
			nil,
			"accepts 0 arg(s), received 1",
		},

		{
			"no extra flags",
			kwargs,
			nil,
			"",
			map[string]string{},
			"",
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			args := strings.Fields(tt.Args)
			if args == nil {
				args = []string{}
			}

			c, _, errOut := testCommand(t, tt.Callback, tt.Defaults)
			result := c.Call(args)

			if tt.Err != "" {
				require.Error(result.Err())
				require.Contains(result.Err().Error(), tt.Err)
				require.Contains(errOut.String(), tt.Err)
				return
			}

			require.NoError(result.Err())
			require.Equal(1, result.Len())
			require.Equal(tt.Out, result.Out(0))
		})
	}
}

func TestCommandCall_args(t *testing.T) {
	require := require.New(t)

	c, _, _ := testCommand(t, hello, helloDefaults())

	// Args given to Call are applied after the parsed values.
	result := c.Call([]string{"X", "--a", "2"}, Named("a", 5), Named("b", 6))
	require.NoError(result.Err())
	require.Equal(map[string]interface{}{"x": "X", "a": 5, "b": 6, "c": "C", "d": true}, result.Out(0))
}

func TestCommandParse_help(t *testing.T) {
	require := require.New(t)

	c, out, _ := testCommand(t, hello, helloDefaults())
	_, err := c.Parse([]string{"--help"})
	require.Equal(ErrHelp, err)

	help := out.String()
	require.Contains(help, "hello x [flags]")
	require.Contains(help, "--a int")
	require.Contains(help, "(default 1)")
	require.Contains(help, "-c, --c string")
	require.Contains(help, "the c value")
	require.Contains(help, "--d {true,false}")
}

func TestCommandParse_version(t *testing.T) {
	require := require.New(t)

	c, out, _ := testCommand(t, hello, helloDefaults(), Version("1.2.3"))
	_, err := c.Parse([]string{"--version"})
	require.Equal(ErrHelp, err)
	require.Contains(out.String(), "1.2.3")
}

func TestCommandParse_description(t *testing.T) {
	require := require.New(t)

	c, out, _ := testCommand(t, hello, append(helloDefaults(),
		Description("Prints hello world\n\nWith a longer description.")))
	_, err := c.Parse([]string{"-h"})
	require.Equal(ErrHelp, err)
	require.Contains(out.String(), "With a longer description.")
}

func TestCommandParse_boundIsPartial(t *testing.T) {
	require := require.New(t)

	c, _, _ := testCommand(t, hello, helloDefaults())
	bound, err := c.Parse([]string{"X", "--b", "3"})
	require.NoError(err)

	require.Equal(map[string]interface{}{
		"x": "X",
		"a": 1,
		"b": 3,
		"c": "C",
		"d": true,
	}, bound.Defaults())
	require.True(bound.Unwrapped() == c.Func().Unwrapped())

	// Each parse starts from the same defaults.
	bound, err = c.Parse([]string{"Y"})
	require.NoError(err)
	require.Equal(2, bound.Defaults()["b"])
}

func TestCommandParse_requiredBound(t *testing.T) {
	require := require.New(t)

	// A required parameter with a bound value is an optional flag.
	c, _, _ := testCommand(t, hello, append(helloDefaults(), Named("x", "bound")))
	require.False(c.Options()[0].Positional)

	result := c.Call([]string{})
	require.NoError(result.Err())
	require.Equal("bound", result.Out(0).(map[string]interface{})["x"])

	result = c.Call([]string{"--x", "flag"})
	require.NoError(result.Err())
	require.Equal("flag", result.Out(0).(map[string]interface{})["x"])
}

func greet(in struct {
	Struct

	Text        string
	Language    lang
	Exclamation *Func
	Tags        map[string]interface{}
	Sizes       []int
}) string {
	result := in.Exclamation.Call()
	var b strings.Builder
	b.WriteString(in.Text)
	b.WriteString(result.Out(0).(string))
	b.WriteString(" " + in.Language.EnumName())
	for _, k := range []string{"a", "b"} {
		if v, ok := in.Tags[k]; ok {
			b.WriteString(" " + k + "=" + toString(v))
		}
	}
	for _, s := range in.Sizes {
		b.WriteString(" " + toString(s))
	}

	return b.String()
}

func toString(v interface{}) string {
	return strings.TrimSpace(flowString(v))
}

func greetDefaults() []Arg {
	return []Arg{
		Named("text", "Hello world"),
		Named("language", langEnUS),
		Named("exclamation", exclamationFunc()),
		Named("tags", map[string]interface{}{"a": 1}),
		Named("sizes", []int{}),
	}
}

func TestCommandCall_structured(t *testing.T) {
	cases := []struct {
		Name string
		Args []string
		Out  string
		Err  string
	}{
		{
			"defaults",
			nil,
			"Hello world!! en_US a=1",
			"",
		},

		{
			"enum",
			[]string{"--language", "hi_IN"},
			"Hello world!! hi_IN a=1",
			"",
		},

		{
			"enum rejects unknown",
			[]string{"--language", "fr_FR"},
			"",
			"choose from en_US, hi_IN",
		},

		{
			"nested",
			[]string{"--exclamation.number", "3", "--exclamation.sign", "?"},
			"Hello world??? en_US a=1",
			"",
		},

		{
			"nested bool",
			[]string{"--exclamation.use", "false"},
			"Hello world en_US a=1",
			"",
		},

		{
			"dict merges",
			[]string{"--tags", `{"b": 2}`},
			"Hello world!! en_US a=1 b=2",
			"",
		},

		{
			"dict overrides",
			[]string{"--tags", `{"a": 3}`},
			"Hello world!! en_US a=3",
			"",
		},

		{
			"list",
			[]string{"--sizes", "[1, 2]"},
			"Hello world!! en_US a=1 1 2",
			"",
		},

		{
			"list rejects a mapping",
			[]string{"--sizes", "{a: 1}"},
			"",
			"expected a list",
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			args := tt.Args
			if args == nil {
				args = []string{}
			}

			c, _, _ := testCommand(t, greet, greetDefaults())
			result := c.Call(args)
			if tt.Err != "" {
				require.Error(result.Err())
				require.Contains(result.Err().Error(), tt.Err)
				return
			}

			require.NoError(result.Err())
			require.Equal(tt.Out, result.Out(0))
		})
	}
}

func TestCommandCall_nestedRequired(t *testing.T) {
	require := require.New(t)

	inner := MustFunc(NewFunc(func(in struct {
		Struct

		Level string `flagmapper:",required"`
	}) string {
		return in.Level
	}))

	c, _, _ := testCommand(t, func(in struct {
		Struct

		Inner *Func
	}) string {
		result := in.Inner.Call()
		return result.Out(0).(string)
	}, []Arg{Named("inner", inner)})

	result := c.Call([]string{})
	require.Error(result.Err())
	require.Contains(result.Err().Error(), `required flag(s) "inner.level" not set`)

	result = c.Call([]string{"--inner.level", "debug"})
	require.NoError(result.Err())
	require.Equal("debug", result.Out(0))
}

func TestCommandExecute(t *testing.T) {
	cases := []struct {
		Name   string
		Args   []string
		Env    map[string]string
		Config string
		Code   int
		Exited bool
		Stderr string
	}{
		{
			Name: "success",
			Args: []string{"X"},
		},

		{
			Name:   "help",
			Args:   []string{"--help"},
			Exited: true,
		},

		{
			Name:   "usage error",
			Args:   []string{},
			Code:   1,
			Exited: true,
			Stderr: "Error: accepts 1 arg(s), received 0",
		},

		{
			Name:   "invalid environment value",
			Args:   []string{"X"},
			Env:    map[string]string{"HELLO_A": "two"},
			Code:   1,
			Exited: true,
			Stderr: "Error: environment variable HELLO_A: invalid value \"two\"",
		},

		{
			Name:   "malformed config file",
			Args:   []string{"X"},
			Config: "a: [1",
			Code:   1,
			Exited: true,
			Stderr: "Error: config file",
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			exited := false
			code := -1
			defer func(old func(int)) { osExit = old }(osExit)
			osExit = func(c int) {
				exited = true
				code = c
			}

			for k, v := range tt.Env {
				t.Setenv(k, v)
			}

			opts := []CommandOption{WithArgs(tt.Args), EnvPrefix("hello")}
			if tt.Config != "" {
				opts = append(opts, ConfigFile(writeConfig(t, "config.yaml", tt.Config)))
			}

			c, _, errOut := testCommand(t, hello, helloDefaults(), opts...)
			result := c.Execute()

			require.Equal(tt.Exited, exited)
			if tt.Stderr != "" {
				require.Contains(errOut.String(), tt.Stderr)
			}
			if tt.Exited {
				require.Equal(tt.Code, code)
				require.Error(result.Err())
				return
			}

			require.NoError(result.Err())
			require.Equal("X", result.Out(0).(map[string]interface{})["x"])
		})
	}
}

func TestCommandExpose(t *testing.T) {
	require := require.New(t)

	c, _, _ := testCommand(t, hello, helloDefaults(), Expose(FilterName("x", "a")))
	require.Equal([]string{"x", "a"}, optionNames(c.Options()))

	result := c.Call([]string{"X", "--c", "D"})
	require.Error(result.Err())
	require.Contains(result.Err().Error(), "unknown flag: --c")

	result = c.Call([]string{"X", "--a", "4"})
	require.NoError(result.Err())
	require.Equal(map[string]interface{}{"x": "X", "a": 4, "b": 2, "c": "C", "d": true}, result.Out(0))
}

func TestCommandExpose_extra(t *testing.T) {
	require := require.New(t)

	c, _, _ := testCommand(t, func(in struct {
		Struct

		A  int
		C  string
		Kw map[string]string `flagmapper:",extra"`
	}) string {
		return fmt.Sprintf("%d %s %v", in.A, in.C, in.Kw)
	}, []Arg{Named("a", 1), Named("c", "secret")}, Expose(FilterName("a", "kw")))

	// Hidden parameters aren't absorbed by the extra parameter.
	result := c.Call([]string{"--c", "overridden"})
	require.Error(result.Err())
	require.Contains(result.Err().Error(), "unknown flag: --c")

	result = c.Call([]string{"--a", "2", "--z", "v"})
	require.NoError(result.Err())
	require.Equal("2 secret map[z:v]", result.Out(0))
}

func TestDefaultLogger(t *testing.T) {
	t.Run("environment sets the level", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("FLAGMAPPER_LOG", "trace")
		c, _, _ := testCommand(t, hello, helloDefaults())
		require.True(c.logger.IsTrace())
	})

	t.Run("explicit logger wins", func(t *testing.T) {
		require := require.New(t)

		t.Setenv("FLAGMAPPER_LOG", "trace")
		c, _, _ := testCommand(t, hello, helloDefaults(), WithLogger(hclog.New(&hclog.LoggerOptions{
			Level: hclog.Error,
		})))
		require.False(c.logger.IsTrace())
	})
}

func TestNewCommand_invalid(t *testing.T) {
	cases := []struct {
		Name     string
		Callback interface{}
		Defaults []Arg
		Opts     []CommandOption
		Err      string
	}{
		{
			"duplicate short flags",
			func(in struct {
				Struct

				A int `flagmapper:",short=x"`
				B int `flagmapper:",short=x"`
			}) {
			},
			nil,
			nil,
			"same short flag",
		},

		{
			"unsupported config format",
			hello,
			helloDefaults(),
			[]CommandOption{ConfigFile("config.ini")},
			"unsupported format",
		},

		{
			"incomplete rule",
			hello,
			helloDefaults(),
			[]CommandOption{WithRules(Rule{Name: "broken"})},
			"must have Match and Build",
		},

		{
			"nil logger",
			hello,
			helloDefaults(),
			[]CommandOption{WithLogger(nil)},
			"can't be nil",
		},
	}

	for _, tt := range cases {
		t.Run(tt.Name, func(t *testing.T) {
			require := require.New(t)

			fn, err := NewFunc(tt.Callback, tt.Defaults...)
			require.NoError(err)

			_, err = NewCommand(fn, tt.Opts...)
			require.Error(err)
			require.Contains(err.Error(), tt.Err)
		})
	}
}

func TestCommandCompletion(t *testing.T) {
	t.Run("flag choices", func(t *testing.T) {
		require := require.New(t)

		c, out, _ := testCommand(t, greet, greetDefaults(), Completion())
		_, err := c.Parse([]string{"__complete", "--language", ""})
		require.Equal(ErrHelp, err)
		require.Contains(out.String(), "Lang.hi_IN")
	})

	t.Run("scripts", func(t *testing.T) {
		for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
			t.Run(shell, func(t *testing.T) {
				require := require.New(t)

				c, _, _ := testCommand(t, greet, greetDefaults(), Completion())

				var buf bytes.Buffer
				require.NoError(c.GenCompletion(&buf, shell))
				require.Contains(buf.String(), "hello")
			})
		}
	})

	t.Run("unsupported shell", func(t *testing.T) {
		c, _, _ := testCommand(t, greet, greetDefaults())

		var buf bytes.Buffer
		err := c.GenCompletion(&buf, "tcsh")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported shell")
	})
}
