package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgsqueeze/internal/report"
)

var validateCmd = &cobra.Command{
	Use:   "validate <out_dir_or_report>",
	Short: "Validate a build report and check the written files match it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	r, path, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}

	errs := report.Validate(r, filepath.Dir(path))
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed).SprintFunc()

	if len(errs) == 0 {
		fmt.Printf("  %s Report is valid\n", ok("✓"))
		fmt.Printf("  %s %d images, %d outputs, all files present and matching\n",
			ok("✓"), r.Stats.TotalEntries, r.Stats.TotalOutputs)
		return nil
	}

	fmt.Printf("  %s Report has %d error(s):\n", bad("✗"), len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}
