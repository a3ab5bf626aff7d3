// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

// osExit is replaced in tests.
var osExit = os.Exit

// Command is a command-line interface for a Func. The options of the
// command are inferred once, when the Command is created, and a fresh
// parser is built for every Parse.
//
// Values are layered with the later sources taking precedence: the
// defaults of the Func, then the config file, then the environment, and
// finally the command-line.
type Command struct {
	fn      *Func
	options []*Option
	logger  hclog.Logger

	rules      []Rule
	completion bool
	configFile string
	envPrefix  string
	filters    []FilterFunc
	args       []string
	out        io.Writer
	errOut     io.Writer
	use        string
	version    string
}

// CommandOption configures a Command.
type CommandOption func(*Command) error

// NewCommand returns the Command for fn.
func NewCommand(fn *Func, opts ...CommandOption) (*Command, error) {
	if fn == nil {
		return nil, errors.New("command requires a function")
	}

	c := &Command{
		fn:     fn,
		logger: defaultLogger(),
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	var err error
	for _, opt := range opts {
		if e := opt(c); e != nil {
			err = multierror.Append(err, e)
		}
	}
	if err != nil {
		return nil, err
	}

	inferer := NewInferer(c.completion, c.rules...)
	inferer.logger = c.logger

	options, err := inferer.Options(fn, c.filters...)
	if err != nil {
		return nil, err
	}

	if err := checkOptions(options); err != nil {
		return nil, err
	}

	c.options = options
	return c, nil
}

// MustCommand can be called around NewCommand or Wrap in order to force
// success and panic if there is any error.
func MustCommand(c *Command, err error) *Command {
	if err != nil {
		panic(err)
	}

	return c
}

// Wrap creates the Func for f with the given Args and returns its Command
// with the default configuration.
func Wrap(f interface{}, opts ...Arg) (*Command, error) {
	fn, err := NewFunc(f, opts...)
	if err != nil {
		return nil, err
	}

	return NewCommand(fn)
}

// checkOptions verifies that no two options share a name or short flag.
func checkOptions(options []*Option) error {
	names := map[string]struct{}{}
	shorts := map[string]string{}

	var err error
	for _, opt := range options {
		if _, ok := names[opt.Name]; ok {
			err = multierror.Append(err, fmt.Errorf("option %q is defined more than once", opt.Name))
		}
		names[opt.Name] = struct{}{}

		if opt.Short == "" {
			continue
		}
		if prev, ok := shorts[opt.Short]; ok {
			err = multierror.Append(err, fmt.Errorf(
				"options %q and %q have the same short flag %q", prev, opt.Name, opt.Short))
		}
		shorts[opt.Short] = opt.Name
	}

	return err
}

// Func returns the function of the command.
func (c *Command) Func() *Func {
	return c.fn
}

// Options returns the options inferred for the function.
func (c *Command) Options() []*Option {
	result := make([]*Option, len(c.options))
	copy(result, c.options)
	return result
}

// Parse parses args and returns the function with every value given on
// the command-line, in the config file or in the environment bound. If
// args is nil, the arguments set with WithArgs are used, or os.Args[1:]
// if there are none.
//
// If the parser handled the invocation itself, such as for --help, the
// result is ErrHelp. Usage errors are printed to the error output before
// they're returned.
func (c *Command) Parse(args []string) (*Func, error) {
	if args == nil {
		args = c.args
	}
	if args == nil {
		args = os.Args[1:]
	}

	log := c.logger.Named("parse")

	options := c.options
	if c.fn.input.extra != nil {
		extra := c.extraOptions(args)
		if len(extra) > 0 {
			options = append(append([]*Option{}, options...), extra...)
		}
	}

	seeds, err := c.seeds(options)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %s\n", err)
		return nil, err
	}

	cmd, state := c.cobraCommand(options, seeds)
	cmd.SetArgs(append([]string{}, args...))

	log.Trace("parsing arguments", "args", args)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	if !state.ran {
		return nil, ErrHelp
	}

	return state.bound, nil
}

// Call parses args and calls the function. The Args given are applied
// after the parsed values.
func (c *Command) Call(args []string, opts ...Arg) Result {
	bound, err := c.Parse(args)
	if err != nil {
		return resultError(err)
	}

	return bound.Call(opts...)
}

// Execute parses the process arguments and calls the function. It is
// meant to be the body of main. If the parser handled the invocation, the
// process exits with status 0, and on a usage error with status 1.
func (c *Command) Execute(opts ...Arg) Result {
	bound, err := c.Parse(nil)
	if err != nil {
		if err == ErrHelp {
			osExit(0)
		} else {
			osExit(1)
		}

		return resultError(err)
	}

	return bound.Call(opts...)
}

// parseState is the state of a single Parse.
type parseState struct {
	positional []*Option
	values     []*optionValue
	args       []interface{}
	ran        bool
	bound      *Func
}

// cobraCommand builds the parser for the given options. Seeded values
// replace the defaults shown in the help.
func (c *Command) cobraCommand(options []*Option, seeds map[string]interface{}) (*cobra.Command, *parseState) {
	state := &parseState{}

	use := []string{c.name()}
	for _, opt := range options {
		if opt.Positional {
			state.positional = append(state.positional, opt)
			use = append(use, opt.Name)
		}
	}

	desc := c.fn.Description()
	short, _, _ := strings.Cut(desc, "\n")

	cmd := &cobra.Command{
		Use:     strings.Join(use, " "),
		Short:   short,
		Long:    desc,
		Version: c.version,
		Args:    state.parseArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state.ran = true
			cmd.SilenceUsage = true

			bound, err := c.fn.Partial(state.named()...)
			if err != nil {
				return err
			}

			state.bound = bound
			return nil
		},
	}
	cmd.SetOut(c.out)
	cmd.SetErr(c.errOut)

	flags := cmd.Flags()
	flags.SortFlags = false
	for _, opt := range options {
		if opt.Positional {
			continue
		}

		v := newOptionValue(opt)
		seed, seeded := seeds[opt.Name]
		if seeded {
			v.value = seed
			v.seed = seed
			v.seeded = true
		}

		flags.VarP(v, opt.Name, opt.Short, opt.Help)
		state.values = append(state.values, v)

		if opt.Required && !seeded {
			_ = cmd.MarkFlagRequired(opt.Name)
		}
	}

	if c.completion {
		registerCompletions(cmd, state)
	}

	return cmd, state
}

// parseArgs checks and converts the positional arguments.
func (s *parseState) parseArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(len(s.positional))(cmd, args); err != nil {
		return err
	}

	s.args = make([]interface{}, len(args))
	for i, opt := range s.positional {
		v, err := opt.Parse(args[i])
		if err != nil {
			return fmt.Errorf("invalid argument %q for %q: %w", args[i], opt.Name, err)
		}

		s.args[i] = v
	}

	return nil
}

// named returns the Args for every value that was given.
func (s *parseState) named() []Arg {
	var result []Arg
	for i, opt := range s.positional {
		result = append(result, Named(opt.Name, s.args[i]))
	}

	for _, v := range s.values {
		if v.set || v.seeded {
			result = append(result, Named(v.opt.Name, v.value))
		}
	}

	return result
}

// extraOptions returns a string option for every "--name" in args that
// doesn't name a parameter of the function. Parameters hidden with Expose
// are left to fail as unknown flags. Scanning stops at "--".
func (c *Command) extraOptions(args []string) []*Option {
	known := map[string]struct{}{
		"help": {},
	}
	if c.version != "" {
		known["version"] = struct{}{}
	}
	for _, opt := range c.options {
		known[normalizeName(opt.Name)] = struct{}{}
	}
	for _, p := range c.fn.input.params {
		known[normalizeName(p.Name)] = struct{}{}
	}

	elem := c.fn.input.extra.Type.Elem()

	var result []*Option
	for _, arg := range args {
		if arg == "--" {
			break
		}

		name, ok := strings.CutPrefix(arg, "--")
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(name, "=")
		if name == "" {
			continue
		}

		key := normalizeName(name)
		if _, ok := known[key]; ok {
			continue
		}
		if head, _, ok := strings.Cut(key, "."); ok {
			if _, ok := known[head]; ok {
				continue
			}
		}
		known[key] = struct{}{}

		c.logger.Trace("adding option for unknown flag", "name", name)
		result = append(result, extraOption(name, elem, nil))
	}

	return result
}

func (c *Command) name() string {
	if c.use != "" {
		return c.use
	}

	return filepath.Base(os.Args[0])
}

// defaultLogger returns the logger used when none is given. The level can
// be set with the FLAGMAPPER_LOG environment variable.
func defaultLogger() hclog.Logger {
	if v := os.Getenv("FLAGMAPPER_LOG"); v != "" {
		return hclog.New(&hclog.LoggerOptions{
			Name:   "flagmapper",
			Level:  hclog.LevelFromString(v),
			Output: os.Stderr,
		})
	}

	return hclog.L().Named("flagmapper")
}

// WithLogger sets the logger of the command.
func WithLogger(l hclog.Logger) CommandOption {
	return func(c *Command) error {
		if l == nil {
			return errors.New("logger can't be nil")
		}

		c.logger = l
		return nil
	}
}

// WithRules adds inference rules that are tried before DefaultRules.
func WithRules(rules ...Rule) CommandOption {
	return func(c *Command) error {
		for _, r := range rules {
			if r.Match == nil || r.Build == nil {
				return fmt.Errorf("rule %q must have Match and Build", r.Name)
			}
		}

		c.rules = append(c.rules, rules...)
		return nil
	}
}

// Completion enables shell completion. The choices of enum and bool
// options are offered as completions, and enum members are keyed by their
// string form. See GenCompletion to write the completion script.
func Completion() CommandOption {
	return func(c *Command) error {
		c.completion = true
		return nil
	}
}

// ConfigFile reads option values from the file at path. The format is
// chosen by extension: ".yaml", ".yml" and ".json" are read as YAML and
// ".toml" as TOML. A missing file is not an error.
func ConfigFile(path string) CommandOption {
	return func(c *Command) error {
		if _, err := configDecoder(path); err != nil {
			return err
		}

		c.configFile = path
		return nil
	}
}

// EnvPrefix reads option values from environment variables. The option
// "exclamation.number" is read from PREFIX_EXCLAMATION_NUMBER.
func EnvPrefix(prefix string) CommandOption {
	return func(c *Command) error {
		c.envPrefix = prefix
		return nil
	}
}

// Expose limits the options of the command to the parameters that match
// every filter. Other parameters keep their values.
func Expose(filters ...FilterFunc) CommandOption {
	return func(c *Command) error {
		c.filters = append(c.filters, filters...)
		return nil
	}
}

// WithArgs sets the arguments parsed when Parse is given nil.
func WithArgs(args []string) CommandOption {
	return func(c *Command) error {
		c.args = args
		return nil
	}
}

// WithOutput sets where help and errors are written.
func WithOutput(out, errOut io.Writer) CommandOption {
	return func(c *Command) error {
		if out != nil {
			c.out = out
		}
		if errOut != nil {
			c.errOut = errOut
		}

		return nil
	}
}

// Use sets the command name shown in the help. It defaults to the base
// name of the executable.
func Use(name string) CommandOption {
	return func(c *Command) error {
		c.use = name
		return nil
	}
}

// Version sets the version of the command and adds a --version flag.
func Version(v string) CommandOption {
	return func(c *Command) error {
		c.version = v
		return nil
	}
}
