// Package router implements a client-side route engine.
//
// Routes are registered as Definitions, possibly nested, and compiled into
// a route table. A navigation matches the target location against every
// registered pattern and runs the route lifecycle on the matches:
//
//	before / beforeInit / beforeUpdate   most specific route first, gated by next
//	leave transition                     when a previous route exists
//	unload                               routes no longer matched
//	init / update                        ancestors first
//	after, pop                           most specific route first
//	enter transition
//
// # Patterns
//
//	/blog/:id          named param
//	/users/:id:int     typed param, validated during matching
//	/files/*path       named wildcard, one or more segments
//	/legacy/*          anonymous wildcard, keyed "0", "1", ...
//
// # Usage
//
//	r := router.New()
//	r.MustMap(router.Definition{
//	    Path: "/blog/:id",
//	    Init: func(to, from *router.Route) error {
//	        log.Println("post", to.Params["id"])
//	        return nil
//	    },
//	})
//
//	result, err := r.Navigate(ctx, "/blog/5")
//
// Navigations are served one at a time. Before-hooks may call next from any
// goroutine; the navigation waits for the decision or for ctx to end.
package router
