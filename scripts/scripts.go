// Package scripts embeds the default Lua bundle.
//
// The bundle follows loader.DefaultSequence(".lua"): core/config,
// core/git, core/url, core/init, then platforms/cli, which publishes the
// browsher_platform namespace (setup, cleanup, url, copy_url, version).
package scripts

import (
	"embed"
	"io/fs"
)

//go:embed core/*.lua platforms/*.lua
var bundle embed.FS

// Namespace is the global the bundle publishes.
const Namespace = "browsher_platform"

// FS returns the embedded bundle.
func FS() fs.FS {
	return bundle
}
