package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"airbnb-cleaner/services"
)

// Options are the parsed command line inputs of a cleaning run.
type Options struct {
	ConfigPath string
	Params     services.Params
}

// Runner executes a parsed invocation.
type Runner func(ctx context.Context, opts Options) error

var requiredFlags = []string{
	"input_artifact",
	"output_artifact",
	"output_type",
	"output_description",
	"min_price",
	"max_price",
}

// NewRootCommand returns the basic_cleaning command. run receives the parsed
// options once cobra has validated the required flags.
func NewRootCommand(run Runner) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:   "basic_cleaning",
		Short: "Clean a raw listings artifact and publish the result",
		Long: "Resolve the input artifact, keep rows whose price lies within " +
			"[min_price, max_price] and whose coordinates fall inside the NYC " +
			"bounding box, normalise last_review to a date and publish the " +
			"cleaned dataset as a new artifact.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Params.InputArtifact, "input_artifact", "", "Fully-qualified name for the input artifact")
	f.StringVar(&opts.Params.OutputArtifact, "output_artifact", "", "Name for the output artifact")
	f.StringVar(&opts.Params.OutputType, "output_type", "", "Type for the output artifact")
	f.StringVar(&opts.Params.OutputDescription, "output_description", "", "Description for the output artifact")
	f.Float64Var(&opts.Params.MinPrice, "min_price", 0, "Minimum price for cleaning outliers")
	f.Float64Var(&opts.Params.MaxPrice, "max_price", 0, "Maximum price for cleaning outliers")
	f.StringVar(&opts.ConfigPath, "config", "", "Optional YAML config file")
	f.StringVar(&opts.Params.WorkDir, "work_dir", "", "Directory for the cleaned file (temporary when empty)")
	f.StringVar(&opts.Params.OutputFileName, "output_file", services.DefaultOutputFileName, "File name of the cleaned dataset")

	for _, name := range requiredFlags {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("cli: mark %s required: %v", name, err))
		}
	}

	return cmd
}
