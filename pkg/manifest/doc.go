// Package manifest loads route tables from JSON or TOML files.
//
// A manifest names its hooks instead of holding code, so the names are
// bound to Go functions through a Registry:
//
//	m, err := manifest.Load(ctx, "routes.toml")
//	reg := manifest.NewRegistry().
//	    Before("auth", requireLogin).
//	    Hook("loadDocs", loadDocs)
//	defs, err := m.Build(reg)
//	r.Map(defs...)
//
// Sources starting with s3:// are fetched with the client passed to
// WithS3.
package manifest
