package tm

// Version information for the transactional memory runtime.
const (
	// Version is the current version of the runtime.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Granularity is the number of bytes arbitrated as one unit.
	Granularity int

	// DirectoryCapacity is the number of resource words of the running
	// engine.
	DirectoryCapacity int

	// ArenaSize is the size of the address space in bytes, or 0 when the
	// engine runs over a custom space.
	ArenaSize int
}
