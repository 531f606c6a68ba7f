// Package routekit is a client-side route engine: a route table with
// nested, named and filtered routes, a lifecycle sequencer running
// before/init/update/after/unload/pop hooks, and leave/enter transitions
// against a document.
//
// Most programs only need this package and pkg/router:
//
//	app, err := routekit.New(ctx, routekit.Options{Config: cfg})
//	if err != nil {
//	    return err
//	}
//	app.Router().MustMap(router.Definition{
//	    Path: "/docs/:page",
//	    Init: func(to, from *routekit.Route) error { return load(to.Params) },
//	})
//	_, err = app.Router().Run(ctx)
package routekit

import (
	"github.com/vango-dev/routekit/pkg/router"
)

// Version is the library version.
const Version = "0.3.0"

// Aliases for the types most handlers touch.
type (
	Route      = router.Route
	Definition = router.Definition
	Result     = router.Result
	Params     = router.Params
	Meta       = router.Meta
	Next       = router.Next
)
