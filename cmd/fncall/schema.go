package main

import (
	"github.com/spf13/cobra"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/core/callable"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the function spec the model is forced to call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := callable.Derive[Table]()
			if err != nil {
				return err
			}
			return a.output(cmd, spec)
		},
	}
}
