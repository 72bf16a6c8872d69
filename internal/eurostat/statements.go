package eurostat

import (
	"fmt"
	"strings"
)

const listProvidersSQL = "SELECT provider_id, organization, description FROM EUROSTAT_Endpoints()"

func listDataflowsSQL(provider, search string, limit int) string {
	var b strings.Builder
	b.WriteString("SELECT provider_id, dataflow_id, label, version FROM EUROSTAT_Dataflows(")
	if provider != "" {
		fmt.Fprintf(&b, "providers := ['%s'], ", provider)
	}
	b.WriteString("language := 'en')")
	if search != "" {
		fmt.Fprintf(&b, " WHERE label ILIKE '%%%s%%'", search)
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)
	return b.String()
}

func describeDataflowSQL(providerID, dataflowID string) string {
	return fmt.Sprintf(
		"SELECT position, dimension, concept FROM EUROSTAT_DataStructure('%s', '%s', language := 'en') ORDER BY position",
		providerID, dataflowID,
	)
}

func searchDataflowsSQL(term string, limit int) string {
	return fmt.Sprintf(
		"SELECT provider_id, dataflow_id, label FROM EUROSTAT_Dataflows(language := 'en') WHERE label ILIKE '%%%s%%' LIMIT %d",
		term, limit,
	)
}

func dataStructureSQL(providerID, dataflowID string) string {
	return fmt.Sprintf(
		"SELECT dimension, concept FROM EUROSTAT_DataStructure('%s', '%s', language := 'en') WHERE position > 0 ORDER BY position",
		providerID, dataflowID,
	)
}
