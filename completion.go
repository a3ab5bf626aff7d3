// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flagmapper

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// GenCompletion writes the completion script for shell to w. The shell is
// one of "bash", "zsh", "fish" or "powershell". The script completes by
// running the program, so the program must call Execute or Parse with
// Completion enabled for choices to be offered.
func (c *Command) GenCompletion(w io.Writer, shell string) error {
	cmd, _ := c.cobraCommand(c.options, nil)

	switch shell {
	case "bash":
		return cmd.GenBashCompletionV2(w, true)
	case "zsh":
		return cmd.GenZshCompletion(w)
	case "fish":
		return cmd.GenFishCompletion(w, true)
	case "powershell":
		return cmd.GenPowerShellCompletionWithDesc(w)
	}

	return fmt.Errorf("unsupported shell %q, choose from bash, zsh, fish, powershell", shell)
}

// registerCompletions offers the choices of options as completions.
func registerCompletions(cmd *cobra.Command, state *parseState) {
	for _, v := range state.values {
		if len(v.opt.Choices) == 0 {
			continue
		}

		_ = cmd.RegisterFlagCompletionFunc(v.opt.Name, choicesCompletion(v.opt.Choices))
	}

	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= len(state.positional) {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		if choices := state.positional[len(args)].Choices; len(choices) > 0 {
			return choices, cobra.ShellCompDirectiveNoFileComp
		}

		return nil, cobra.ShellCompDirectiveDefault
	}
}

func choicesCompletion(choices []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return choices, cobra.ShellCompDirectiveNoFileComp
	}
}
