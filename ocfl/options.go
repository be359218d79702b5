package ocfl

// OcflOption modifies the behavior of a single mutation call (addPath,
// putObject, replicateVersionAsHead, ...).
type OcflOption func(*ocflOptions)

type ocflOptions struct {
	overwrite    bool
	moveSource   bool
	noValidation bool
}

func buildOptions(opts ...OcflOption) ocflOptions {
	var o ocflOptions
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// OVERWRITE allows a mutation to replace an existing logical path instead
// of failing with ErrPathAlreadyExists.
func OVERWRITE() OcflOption {
	return func(o *ocflOptions) { o.overwrite = true }
}

// MOVE_SOURCE tells an add-file operation to move the source file into
// the object's content store instead of copying it, when the source and
// destination filesystems support it.
func MOVE_SOURCE() OcflOption {
	return func(o *ocflOptions) { o.moveSource = true }
}

// NO_VALIDATION skips structural validation that an operation would
// otherwise perform, e.g. on importObject/importVersion.
func NO_VALIDATION() OcflOption {
	return func(o *ocflOptions) { o.noValidation = true }
}
