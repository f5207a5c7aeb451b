package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/hfagents/tools/imagegen"
)

var generateModel string

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate an image without an LLM",
	Long: `Generate an image with the image generation tool directly.

The result line is printed as the tool reports it. Failures are reported
in the text and do not change the exit status.

Example:
  hfagent generate "a lighthouse at dusk" --model runwayml/stable-diffusion-v1-5`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		res := imagegen.NewFromConfig(cfg).Generate(cmd.Context(), imagegen.Request{
			Prompt: strings.Join(args, " "),
			Model:  generateModel,
		})
		fmt.Fprintln(cmd.OutOrStdout(), res.String())
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateModel, "model", "m", "", "model id to use instead of the configured one")
}
