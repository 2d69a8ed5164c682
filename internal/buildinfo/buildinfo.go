// Package buildinfo carries the version stamp injected at link time, e.g.
// -ldflags "-X vrpbench/internal/buildinfo.Version=v1.2.0".
package buildinfo

var (
	Version = "dev"
	Commit  = ""
	BuiltAt = ""
)

// Info returns the stamp as a map, for version banners and export metadata.
func Info() map[string]string {
	return map[string]string{
		"version":  Version,
		"commit":   Commit,
		"built_at": BuiltAt,
	}
}
