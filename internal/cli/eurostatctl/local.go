package eurostatctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/duckmesh/eurostat-mcp/internal/eurostat"
	"github.com/duckmesh/eurostat-mcp/internal/llm"
	"github.com/duckmesh/eurostat-mcp/internal/nl2sql"
	"github.com/duckmesh/eurostat-mcp/internal/query/duckdb"
)

func newSQLCommand(opts *Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "sql <statement>",
		Short: "Run SQL against a local DuckDB with the Eurostat extension",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRunner(cmd.Context(), func(runner *eurostat.Runner) error {
				result, err := runner.ExecuteQuery(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return failed("%v", err)
				}
				_, _ = fmt.Fprintln(opts.Stdout, result)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "row limit appended when the statement has none")
	return cmd
}

func newSearchCommand(opts *Options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search dataflows by label",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRunner(cmd.Context(), func(runner *eurostat.Runner) error {
				dataflows, err := runner.SearchDataflows(cmd.Context(), strings.Join(args, " "), limit)
				if err != nil {
					return failed("%v", err)
				}
				if len(dataflows) == 0 {
					_, _ = fmt.Fprintln(opts.Stdout, eurostat.NoResults)
					return nil
				}
				data := pterm.TableData{{"provider_id", "dataflow_id", "label"}}
				for _, dataflow := range dataflows {
					data = append(data, []string{dataflow.ProviderID, dataflow.DataflowID, dataflow.Label})
				}
				if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(opts.Stdout).Render(); err != nil {
					return failed("render table: %v", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of dataflows")
	return cmd
}

func newStructureCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "structure <provider_id> <dataflow_id>",
		Short: "Show the dimensions of a dataflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRunner(cmd.Context(), func(runner *eurostat.Runner) error {
				structure, err := runner.DataStructure(cmd.Context(), args[0], args[1])
				if err != nil {
					return failed("%v", err)
				}
				data := pterm.TableData{{"dimension", "concept"}}
				for i, dimension := range structure.Dimensions {
					data = append(data, []string{dimension, structure.Concepts[i]})
				}
				if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(opts.Stdout).Render(); err != nil {
					return failed("render table: %v", err)
				}
				return nil
			})
		},
	}
}

func newTranslateCommand(opts *Options) *cobra.Command {
	var providerKey string
	cmd := &cobra.Command{
		Use:   "translate <question>",
		Short: "Print the SQL generated for a natural language question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := firstNonEmpty(providerKey, opts.Config.LLM.Provider)
			provider, err := opts.NewProvider(key, llm.ConfigFrom(opts.Config.LLM))
			if err != nil {
				return failed("%v", err)
			}
			translator := nl2sql.NewLLMTranslator(provider, opts.logger())
			result, err := translator.Translate(cmd.Context(), nl2sql.Request{NaturalLanguage: strings.Join(args, " ")})
			if err != nil {
				return failed("%v", err)
			}
			_, _ = fmt.Fprintln(opts.Stdout, result.SQL)
			return nil
		},
	}
	cmd.Flags().StringVar(&providerKey, "provider", "", fmt.Sprintf("override LLM_PROVIDER for this call (%s)", strings.Join(llm.Keys(), ", ")))
	return cmd
}

func (o *Options) withRunner(ctx context.Context, fn func(runner *eurostat.Runner) error) error {
	engine, err := o.OpenEngine(ctx, duckdb.ConfigFrom(o.Config.Engine))
	if err != nil {
		return failed("%v", err)
	}
	runner := eurostat.NewRunner(engine, o.logger())
	defer func() { _ = runner.Close() }()
	return fn(runner)
}
