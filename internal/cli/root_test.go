package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyvit/dwarfdb"
)

type member struct {
	Name string `msgpack:"name"`
	Rank int    `msgpack:"rank"`
}

// seedDB creates a database with a three-member set and one plain binding.
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")

	codec := dwarfdb.NewCodec(dwarfdb.CodecOptions{})
	dwarfdb.Register[member](codec, "member")
	db, err := dwarfdb.Open(path, dwarfdb.Options{IsTesting: true, Serializer: codec})
	require.NoError(t, err)

	err = db.Update(func(tx *dwarfdb.Tx) error {
		set := dwarfdb.NewRecoverableSet[*member]("guild", tx.Bindings())
		for i, name := range []string{"ann", "ben", "cid"} {
			if _, err := set.Add(&member{Name: name, Rank: i}); err != nil {
				return err
			}
		}
		return tx.Bindings().Update("leader", &member{Name: "dee", Rank: 9})
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dwarfdb", cmd.Use)

	for _, name := range []string{"bindings", "entity", "stats", "dump"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMissingDB(t *testing.T) {
	_, err := execute(t, "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "stats", "--db", "x.db", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestNonexistentDB(t *testing.T) {
	_, err := execute(t, "stats", "--db", filepath.Join(t.TempDir(), "missing.db"), "--timeout", "100ms")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFile(t *testing.T) {
	path := seedDB(t)
	cfgPath := filepath.Join(t.TempDir(), "dwarfdb.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("db: "+path+"\nformat: json\ntimeout: 2s\n"), 0644))

	cfg, err := LoadConfig(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.DB)
	assert.Equal(t, 2*time.Second, cfg.Timeout)

	out, err := execute(t, "--config", cfgPath, "bindings", "--prefix", "leader")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "leader", "id": "4"}]`, out)

	// flags win over the file
	out, err = execute(t, "--config", cfgPath, "--format", "text", "bindings", "--prefix", "leader")
	require.NoError(t, err)
	assert.Equal(t, "leader => 4\n", out)
}

func TestConfigFile_UnknownField(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "dwarfdb.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database: x.db\n"), 0644))

	_, err := LoadConfig(cfgPath)
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
