package toolhost

// NilInstallerError indicates New was invoked without an installer.
type NilInstallerError struct{}

func (NilInstallerError) Error() string {
	return "installer is required"
}
