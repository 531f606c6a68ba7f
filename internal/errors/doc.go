// Package errors provides structured, coded errors for routekit.
//
// Every error carries:
//   - A unique code (e.g., "E001") with a registered message and detail
//   - A category (config, manifest, navigation, transition, cli)
//   - An optional location (manifest file and route path)
//   - An optional suggestion and documentation link
//
// # Error Categories
//
//   - config: Route table construction and configuration errors
//   - manifest: Route manifest decoding and handler resolution
//   - navigation: Hook failures and invalid navigation targets
//   - transition: Leave callback failures
//   - cli: Command-line usage errors
//
// # Usage
//
//	err := errors.New("E001").
//	    WithRoute("/users/:").
//	    WithDetail("parameter name is empty").
//	    Wrap(routepath.ErrInvalidPattern)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E001: Invalid route pattern
//	//
//	//   route /users/:
//	//
//	//   parameter name is empty
//	//
//	//   Learn more: https://routekit.dev/docs/errors/E001
package errors
