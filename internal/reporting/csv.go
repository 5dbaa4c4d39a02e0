package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders per-identifier accounting as a CSV string.
func RenderCSV(units []UnitRow) string {
	var sb strings.Builder

	sb.WriteString("source,identifier,records_stored,records_updated,errors\n")

	for _, u := range units {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%d,%d\n",
			u.Source,
			u.Identifier,
			u.RecordsStored,
			u.RecordsUpdated,
			u.Errors,
		))
	}

	return sb.String()
}
