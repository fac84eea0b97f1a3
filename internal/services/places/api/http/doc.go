// Package httpapi exposes the places REST API.
//
// Mutating place routes sit behind RequireAuth, which resolves the bearer
// token into a requestctx.Identity before the handler runs.
package httpapi
