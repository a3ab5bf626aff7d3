// Package flagmapper turns a Go function into a command-line program.
//
// The parameters of the function become the options of the command: their
// names become flag names, and the type of each default value decides how
// the command-line text is read. Required parameters become positional
// arguments. Go doesn't expose parameter names through reflection, so the
// function takes a single struct whose fields are the parameters:
//
//	func greet(in struct {
//		flagmapper.Struct
//
//		Name     string `flagmapper:",required"`
//		Language Lang
//		Count    int `help:"number of exclamation signs"`
//	}) {
//		...
//	}
//
//	func main() {
//		cmd, err := flagmapper.Wrap(greet, flagmapper.Named("count", 2))
//		if err != nil {
//			panic(err)
//		}
//
//		cmd.Execute()
//	}
//
// A default that is itself a *Func makes a nested command whose options
// appear under a dotted prefix, such as --exclamation.number.
//
// The primary types of this library are Func, which supports partial
// application of named arguments, and Command. See their documentation for
// more details.
package flagmapper
