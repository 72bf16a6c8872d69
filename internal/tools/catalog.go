package tools

import (
	"context"
	"fmt"

	"github.com/duckmesh/eurostat-mcp/internal/nl2sql"
)

const (
	ToolQueryEurostat        = "query_eurostat"
	ToolListDataflows        = "list_dataflows"
	ToolGetDataflowStructure = "get_dataflow_structure"
	ToolExecuteSQL           = "execute_sql"
	ToolListProviders        = "list_providers"
)

type QueryEurostatArgs struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Natural language query about Eurostat data"`
	Limit int    `json:"limit,omitempty" jsonschema:"default=100" jsonschema_description:"Maximum number of rows to return (default: 100)"`
}

type ListDataflowsArgs struct {
	Provider string `json:"provider,omitempty" jsonschema_description:"Provider ID (e.g., 'ESTAT', 'ECFIN'). Leave empty for all providers."`
	Search   string `json:"search,omitempty" jsonschema_description:"Search term to filter dataflows by label"`
	Limit    int    `json:"limit,omitempty" jsonschema:"default=50" jsonschema_description:"Maximum number of dataflows to return (default: 50)"`
}

type GetDataflowStructureArgs struct {
	ProviderID string `json:"provider_id" jsonschema:"required" jsonschema_description:"Provider ID (e.g., 'ESTAT')"`
	DataflowID string `json:"dataflow_id" jsonschema:"required" jsonschema_description:"Dataflow ID (e.g., 'DEMO_R_D2JAN')"`
}

type ExecuteSQLArgs struct {
	SQL   string `json:"sql" jsonschema:"required" jsonschema_description:"SQL query to execute"`
	Limit int    `json:"limit,omitempty" jsonschema:"default=100" jsonschema_description:"Maximum number of rows to return (default: 100)"`
}

type ListProvidersArgs struct{}

func (d *Dispatcher) catalog() ([]*tool, error) {
	builders := []func() (*tool, error){
		func() (*tool, error) {
			return newTool(ToolQueryEurostat,
				"Query Eurostat data using natural language. "+
					"The query will be translated to SQL and executed against the DuckDB Eurostat extension. "+
					"Examples: 'Get population data for Germany in 2020', "+
					"'Show unemployment rates for EU countries', "+
					"'List available datasets about GDP'",
				QueryEurostatArgs{Limit: 100}, d.queryEurostat)
		},
		func() (*tool, error) {
			return newTool(ToolListDataflows,
				"List available Eurostat dataflows/datasets. "+
					"You can optionally filter by provider or search for specific keywords.",
				ListDataflowsArgs{Limit: 50}, d.listDataflows)
		},
		func() (*tool, error) {
			return newTool(ToolGetDataflowStructure,
				"Get the structure (dimensions and concepts) of a specific Eurostat dataflow. "+
					"This helps understand what data is available and how to query it.",
				GetDataflowStructureArgs{}, d.getDataflowStructure)
		},
		func() (*tool, error) {
			return newTool(ToolExecuteSQL,
				"Execute a raw SQL query against the DuckDB Eurostat database. "+
					"Use this for advanced queries or when you need precise control. "+
					"The DuckDB Eurostat extension provides functions like EUROSTAT_Read, "+
					"EUROSTAT_Dataflows, EUROSTAT_DataStructure, etc.",
				ExecuteSQLArgs{Limit: 100}, d.executeSQL)
		},
		func() (*tool, error) {
			return newTool(ToolListProviders,
				"List all available Eurostat API endpoints/providers",
				ListProvidersArgs{}, d.listProviders)
		},
	}

	tools := make([]*tool, 0, len(builders))
	for _, build := range builders {
		t, err := build()
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, nil
}

func (d *Dispatcher) queryEurostat(ctx context.Context, args QueryEurostatArgs) (string, error) {
	translated, err := d.translator.Translate(ctx, nl2sql.Request{NaturalLanguage: args.Query})
	if err != nil {
		return "", err
	}
	result, err := d.runner.ExecuteQuery(ctx, translated.SQL, args.Limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("**Natural Language Query:** %s\n\n**Generated SQL:**\n```sql\n%s\n```\n\n**Results:**\n%s",
		args.Query, translated.SQL, result), nil
}

func (d *Dispatcher) listDataflows(ctx context.Context, args ListDataflowsArgs) (string, error) {
	result, err := d.runner.ListDataflows(ctx, args.Provider, args.Search, args.Limit)
	if err != nil {
		return "", err
	}
	return "**Available Dataflows:**\n" + result, nil
}

func (d *Dispatcher) getDataflowStructure(ctx context.Context, args GetDataflowStructureArgs) (string, error) {
	result, err := d.runner.DescribeDataflow(ctx, args.ProviderID, args.DataflowID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("**Dataflow Structure for %s/%s:**\n%s", args.ProviderID, args.DataflowID, result), nil
}

func (d *Dispatcher) executeSQL(ctx context.Context, args ExecuteSQLArgs) (string, error) {
	result, err := d.runner.ExecuteQuery(ctx, args.SQL, args.Limit)
	if err != nil {
		return "", err
	}
	return "**SQL Query Results:**\n" + result, nil
}

func (d *Dispatcher) listProviders(ctx context.Context, _ ListProvidersArgs) (string, error) {
	result, err := d.runner.ListProviders(ctx)
	if err != nil {
		return "", err
	}
	return "**Available Providers:**\n" + result, nil
}
