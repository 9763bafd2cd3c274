package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/justified/pkg/justify"
	"github.com/matzehuels/justified/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for justified.

To load completions:

Bash:
  $ source <(justified completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ justified completion bash > /etc/bash_completion.d/justified
  # macOS:
  $ justified completion bash > $(brew --prefix)/etc/bash_completion.d/justified

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ justified completion zsh > "${fpath[1]}/_justified"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ justified completion fish | source

  # To load completions for each session, execute once:
  $ justified completion fish > ~/.config/fish/completions/justified.fish

PowerShell:
  PS> justified completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> justified completion powershell > justified.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeFormats completes the comma-separated --format flag, one format at a
// time.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	done, _ := splitLast(toComplete)
	var chosen []string
	if done != "" {
		chosen = strings.Split(done, ",")
	}

	var out []string
	for _, f := range []string{pipeline.FormatSVG, pipeline.FormatHTML, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatJSON} {
		if slices.Contains(chosen, f) {
			continue
		}
		if done != "" {
			f = done + "," + f
		}
		out = append(out, f)
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completePolicies completes the --policy flag.
func completePolicies(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{
		justify.FlushBefore.String() + "\tclose the row before the overflowing item",
		justify.FlushAfter.String() + "\tclose the row after the overflowing item",
	}, cobra.ShellCompDirectiveNoFileComp
}

// splitLast splits "a,b,c" into "a,b" and "c".
func splitLast(s string) (head, last string) {
	i := strings.LastIndex(s, ",")
	if i < 0 {
		return "", s
	}
	return s[:i], s[i+1:]
}
