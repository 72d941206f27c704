package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const contactsMork = `// <!-- <mdb:mork:z v="1.4"/> -->
< <(a=c)> // (f=iso-8859-1)
  (80=ns:addrbk:db:row:scope:card:all)(83=DisplayName)(84=PrimaryEmail)
  (87=ns:addrbk:db:table:kind:pab)>
<(A0=Alice Example)(A1=alice@example.com)(A2=Bob Builder)(A3=bob@example.org)>
{1:^80 {(k^87:c)(s=9)}
  [1(^83^A0)(^84^A1)]
  [2(^83^A2)(^84^A3)]}
`

const (
	aliceJSON = `{"DisplayName":"Alice Example","PrimaryEmail":"alice@example.com","email":"alice@example.com","name":"Alice Example"}`
	bobJSON   = `{"DisplayName":"Bob Builder","PrimaryEmail":"bob@example.org","email":"bob@example.org","name":"Bob Builder"}`
)

// writeFile writes content to name in a fresh temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeWithInput(t, nil, args...)
}

func executeWithInput(t *testing.T, stdin *bytes.Buffer, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// newTestCommand returns a bare command with captured output, for calling
// run functions directly.
func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	return cmd, out
}
