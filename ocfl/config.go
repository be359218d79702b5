package ocfl

import "github.com/ocflgo/ocfl/digest"

// OcflConfig holds the repository-wide defaults the embedding program
// supplies at construction. It is a plain struct: no file format, flags,
// or environment parsing live in this module.
type OcflConfig struct {
	// DefaultDigestAlgorithm is used for new objects; sha512 or sha256.
	DefaultDigestAlgorithm string
	// DefaultContentDirectory names the per-version content sub-directory
	// for new objects; defaults to "content".
	DefaultContentDirectory string
	// DefaultOcflType is the OCFL spec version stamped on new objects;
	// defaults to "1.1".
	DefaultOcflType Spec
	// UpgradeObjectsOnWrite lets upgradeInventory raise an existing
	// object's type to DefaultOcflType when it is newer than the
	// inventory's current type.
	UpgradeObjectsOnWrite bool
}

func (c OcflConfig) defaultDigestAlg() string {
	if c.DefaultDigestAlgorithm == "" {
		return digest.SHA512
	}
	return c.DefaultDigestAlgorithm
}

func (c OcflConfig) defaultContentDir() string {
	if c.DefaultContentDirectory == "" {
		return "content"
	}
	return c.DefaultContentDirectory
}

func (c OcflConfig) defaultOcflType() Spec {
	if c.DefaultOcflType.Empty() {
		return Spec("1.1")
	}
	return c.DefaultOcflType
}
