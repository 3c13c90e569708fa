// Package sig verifies the detached GPG signatures pacman repositories
// publish alongside each package archive and database, the external
// collaborator behind ValidateSignature (§6 IMPORT_KEY, §7 Integrity).
package sig

import (
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/pkg/errors"
)

// Keyring wraps an openpgp.EntityList loaded from the GPGDir
// configured in pacman.conf.
type Keyring struct {
	entities openpgp.EntityList
}

// LoadKeyring reads every armored or binary public key in keyringPath
// (pacman's own gnupg pubring export).
func LoadKeyring(keyringPath string) (*Keyring, error) {
	f, err := os.Open(keyringPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", keyringPath)
	}
	defer f.Close()

	entities, err := openpgp.ReadKeyRing(f)
	if err != nil {
		entities, err = tryArmored(keyringPath)
		if err != nil {
			return nil, errors.Wrapf(err, "reading keyring %s", keyringPath)
		}
	}
	return &Keyring{entities: entities}, nil
}

func tryArmored(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return openpgp.ReadArmoredKeyRing(f)
}

// VerifyDetached checks a detached signature file against data, using
// the keyring's known public keys. It returns one of the signing
// entity's user ID strings on success; when the key has several, which
// one is not defined.
func (k *Keyring) VerifyDetached(data io.Reader, sig io.Reader) (string, error) {
	signer, err := openpgp.CheckDetachedSignature(k.entities, data, sig, nil)
	if err != nil {
		return "", errors.Wrap(err, "signature verification failed")
	}
	if signer == nil {
		return "", errors.New("signature verification: no matching key in keyring")
	}
	for _, id := range signer.Identities {
		return id.Name, nil
	}
	return "", nil
}

// VerifyFile is a convenience wrapper around VerifyDetached for the
// common case of a package archive plus its "<archive>.sig" sidecar.
func (k *Keyring) VerifyFile(archivePath, sigPath string) (string, error) {
	data, err := os.Open(archivePath)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", archivePath)
	}
	defer data.Close()

	sig, err := os.Open(sigPath)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", sigPath)
	}
	defer sig.Close()

	return k.VerifyDetached(data, sig)
}
