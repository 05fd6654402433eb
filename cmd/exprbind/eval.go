package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/exprbind/pkg/exprbind/expr"
	"github.com/randalmurphal/exprbind/pkg/exprbind/value"
)

var (
	evalSet  string
	evalJSON bool
)

var evalCmd = &cobra.Command{
	Use:   "eval EXPR",
	Short: "Evaluate an expression once",
	Long: `Evaluates EXPR against the model and prints the result.

With --set, the value is written through EXPR instead, inverting any
filters, and the updated model is printed as YAML.

Example:
  exprbind eval "items.length" --model model.yaml
  exprbind eval "user.name" --model model.yaml --set Sally`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalSet, "set", "", "write this value through the expression")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "print the result as JSON")
}

func runEval(cmd *cobra.Command, args []string) error {
	model, err := loadModel()
	if err != nil {
		return err
	}
	d, err := newDelegate(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	x, err := d.Parse(args[0])
	if err != nil {
		return err
	}
	scope := expr.NewScope(model)
	out := cmd.OutOrStdout()

	if cmd.Flags().Changed("set") {
		if err := d.Evaluator().EvaluateAndSet(x, scope, evalSet); err != nil {
			return err
		}
		logger.Debug("value written", zap.String("expr", args[0]), zap.String("value", evalSet))
		return writeYAML(out, model)
	}

	v, err := d.Evaluator().Evaluate(x, scope)
	if err != nil {
		return err
	}
	if evalJSON {
		return writeJSON(out, v)
	}
	_, err = fmt.Fprintln(out, value.ToString(v))
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(value.Plain(v), "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeYAML(w io.Writer, model map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(model); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}
