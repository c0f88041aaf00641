package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Amaan-AeonX/VertexAi-bigquery-chatbot/pkg/schema"
)

// tableRefPattern matches fully-qualified backticked table references of the
// form `project.dataset.table`.
var tableRefPattern = regexp.MustCompile("`([A-Za-z0-9-]+)\\.([A-Za-z0-9_]+)\\.([A-Za-z0-9_]+)`")

// Guard is the allow-list check applied to model-generated queries
// before execution: the statement must be a read (SELECT or WITH) and every
// fully-qualified table reference must exist in the schema snapshot.
type Guard struct {
	projectID string
}

// NewGuard creates a guard for one warehouse project.
func NewGuard(projectID string) *Guard {
	return &Guard{projectID: projectID}
}

// Check returns an error when the query is not an allow-listed read over
// known tables.
func (g *Guard) Check(sql string, snap *schema.Snapshot) error {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("rejected query: only SELECT statements are allowed")
	}

	for _, ref := range tableRefPattern.FindAllStringSubmatch(sql, -1) {
		project, dataset, table := ref[1], ref[2], ref[3]
		if project != g.projectID {
			return fmt.Errorf("rejected query: unknown project %q", project)
		}
		if !snap.HasTable(dataset, table) {
			return fmt.Errorf("rejected query: unknown table %s.%s", dataset, table)
		}
	}
	return nil
}
