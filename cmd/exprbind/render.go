package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/exprbind/pkg/exprbind"
	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/template"
)

var (
	templateFile string
	missingFlag  string
)

var renderCmd = &cobra.Command{
	Use:   "render [TEMPLATE]",
	Short: "Render a template once",
	Long: `Renders TEMPLATE, or the contents of --file, against the model.

Bindings that evaluate to null or undefined render as empty text by
default; --missing keep leaves the binding source in place and
--missing error fails instead.

Example:
  exprbind render "{{ user.name | upperCase }}" --model model.yaml
  exprbind render --file page.tmpl --model model.json --missing error`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	for _, c := range []*cobra.Command{renderCmd, watchCmd} {
		c.Flags().StringVarP(&templateFile, "file", "f", "", "read the template from a file")
		c.Flags().StringVar(&missingFlag, "missing", "empty", "missing value handling: empty, keep or error")
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	src, err := templateSource(args)
	if err != nil {
		return err
	}
	action, err := parseMissing(missingFlag)
	if err != nil {
		return err
	}
	model, err := loadModel()
	if err != nil {
		return err
	}

	var errs []error
	d, err := newDelegate(cmd,
		exprbind.WithMissingAction(action),
		exprbind.WithErrorHandler(func(err error) { errs = append(errs, err) }),
	)
	if err != nil {
		return err
	}
	defer d.Close()

	tb, err := d.BindText(src, expr.NewScope(model), nil)
	if err != nil {
		return err
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), tb.String())
	return err
}

// templateSource returns the template from --file or the single argument.
func templateSource(args []string) (string, error) {
	switch {
	case templateFile != "" && len(args) > 0:
		return "", errors.New("give a template argument or --file, not both")
	case templateFile != "":
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return "", fmt.Errorf("read template: %w", err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", errors.New("no template given")
	}
}

func parseMissing(s string) (template.MissingAction, error) {
	switch s {
	case "", "empty":
		return template.MissingEmpty, nil
	case "keep":
		return template.MissingKeep, nil
	case "error":
		return template.MissingError, nil
	default:
		return 0, fmt.Errorf("unknown --missing value %q", s)
	}
}
