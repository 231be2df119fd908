package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindingsCommand(t *testing.T) {
	path := seedDB(t)

	out, err := execute(t, "bindings", "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "guild.00000000000000000000 => 1\n"+
		"guild.00000000000000000001 => 2\n"+
		"guild.00000000000000000002 => 3\n"+
		"leader => 4\n", out)

	out, err = execute(t, "bindings", "--db", path, "--prefix", "guild.", "--format", "json")
	require.NoError(t, err)
	var rows []bindingRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, bindingRow{"guild.00000000000000000001", "2"}, rows[1])
}

func TestEntityCommand(t *testing.T) {
	path := seedDB(t)

	out, err := execute(t, "entity", "2", "--db", path, "--format", "json")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "2", info["id"])
	assert.Equal(t, "member", info["type"])
	assert.Equal(t, map[string]any{"name": "ben", "rank": float64(1)}, info["data"])

	out, err = execute(t, "entity", "4", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "4 member (")
	assert.Contains(t, out, `"name": "dee"`)
}

func TestEntityCommand_Errors(t *testing.T) {
	path := seedDB(t)

	_, err := execute(t, "entity", "99", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "entity 99 not found")

	_, err = execute(t, "entity", "abc", "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "entity", "--db", path)
	require.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	path := seedDB(t)

	out, err := execute(t, "stats", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bindings: rows = 4,")
	assert.Contains(t, out, "entities: rows = 4,")

	out, err = execute(t, "stats", "--db", path, "--format", "json")
	require.NoError(t, err)
	var stats []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	require.Len(t, stats, 2)
	assert.Equal(t, "bindings", stats[0]["Name"])
}

func TestDumpCommand(t *testing.T) {
	path := seedDB(t)

	out, err := execute(t, "dump", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, `bindings."leader" => 4`)
	assert.Contains(t, out, "entities.3 = member (")
	assert.NotContains(t, out, `"cid"`)

	out, err = execute(t, "dump", "--db", path, "--data")
	require.NoError(t, err)
	assert.Contains(t, out, `{"name":"cid","rank":2}`)
}
