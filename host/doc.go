// Package host builds the root object scripts reach through the injected
// host global.
//
// Each capability is a struct whose exported methods become script
// functions, named in snake_case under the capability namespace:
//
//	host.git.remote_url(root, "origin")
//	host.settings.get("url.pin")
//	host.clipboard.write(url)
//
// Methods may return a trailing error; a non-nil error is raised inside the
// calling script. Capabilities must not call back into the gateway.
package host
