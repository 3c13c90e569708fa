package sig

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestKeyring(t *testing.T) (string, *openpgp.Entity) {
	t.Helper()
	entity, err := openpgp.NewEntity("pacman test key", "", "test@example.com", nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pubring.gpg")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, entity.Serialize(f))

	return path, entity
}

func TestVerifyDetachedSuccess(t *testing.T) {
	path, entity := writeTestKeyring(t)
	kr, err := LoadKeyring(path)
	require.NoError(t, err)

	data := bytes.NewBufferString("package archive contents")
	var sigBuf bytes.Buffer
	require.NoError(t, openpgp.DetachSign(&sigBuf, entity, bytes.NewReader(data.Bytes()), nil))

	name, err := kr.VerifyDetached(bytes.NewReader(data.Bytes()), bytes.NewReader(sigBuf.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, name, "pacman test key")
}

func TestVerifyDetachedWrongData(t *testing.T) {
	path, entity := writeTestKeyring(t)
	kr, err := LoadKeyring(path)
	require.NoError(t, err)

	var sigBuf bytes.Buffer
	require.NoError(t, openpgp.DetachSign(&sigBuf, entity, bytes.NewReader([]byte("original")), nil))

	_, err = kr.VerifyDetached(bytes.NewReader([]byte("tampered")), bytes.NewReader(sigBuf.Bytes()))
	assert.Error(t, err)
}

func TestLoadKeyringMissingFile(t *testing.T) {
	_, err := LoadKeyring(filepath.Join(t.TempDir(), "nope.gpg"))
	assert.Error(t, err)
}
