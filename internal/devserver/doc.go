// Package devserver is the HTTP inspector behind "routekit serve".
//
// It serves the route table and current route as JSON, accepts
// navigations over POST /api/navigate, and keeps websocket clients on
// /ws informed of every completed navigation. Websocket clients may send
// {"type":"transitionend","target":"<selector>"} to finish a pending
// leave transition on the in-memory document.
//
// Navigation targets from clients must be in-app paths starting with a
// single "/".
package devserver
