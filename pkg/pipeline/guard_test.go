package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardAllowsReadsOverKnownTables(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	guard := NewGuard(testProject)

	assert.NoError(t, guard.Check(
		"SELECT machine_code FROM `raymond-maini-iiot.cnc_dataset.machine_parameters` LIMIT 1", snap))
	assert.NoError(t, guard.Check(
		"WITH recent AS (SELECT * FROM `raymond-maini-iiot.cnc_dataset.machine_connections`) SELECT * FROM recent", snap))
	// A constant query references no tables at all.
	assert.NoError(t, guard.Check("SELECT 1 AS result", snap))
}

func TestGuardRejectsNonSelectStatements(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	guard := NewGuard(testProject)

	for _, sql := range []string{
		"DROP TABLE `raymond-maini-iiot.cnc_dataset.machine_parameters`",
		"DELETE FROM `raymond-maini-iiot.cnc_dataset.machine_parameters` WHERE true",
		"INSERT INTO `raymond-maini-iiot.cnc_dataset.machine_parameters` VALUES (1)",
	} {
		assert.Error(t, guard.Check(sql, snap), "sql: %s", sql)
	}
}

func TestGuardRejectsUnknownReferences(t *testing.T) {
	snap := testSnapshot(t, newTestWarehouse())
	guard := NewGuard(testProject)

	err := guard.Check("SELECT * FROM `raymond-maini-iiot.cnc_dataset.secrets`", snap)
	assert.ErrorContains(t, err, "unknown table")

	err = guard.Check("SELECT * FROM `other-project.cnc_dataset.machine_parameters`", snap)
	assert.ErrorContains(t, err, "unknown project")
}
