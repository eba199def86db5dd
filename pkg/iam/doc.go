// Package iam holds the authentication error registry shared by the identity
// sub-packages.
//
// # Overview
//
//   - iam/identity              : Resolver port, bearer extraction, fiber middleware, JWT resolver
//   - iam/identity/identityhttp : resolves tokens against the hosted backend (GET /auth/v1/user)
//   - iam/identity/identityredis: short-TTL redis cache in front of any Resolver
//
// Every authentication failure surfaces as a 401 with the message
// "Unauthorized". The code (IAM_MISSING_TOKEN, IAM_INVALID_TOKEN,
// IAM_UNAUTHORIZED) and the "reason" detail tell the cases apart in logs.
//
// # Wiring
//
//	resolver := identityhttp.NewResolver(cfg.BackendURL, cfg.AnonKey, httpClient)
//	if rdb != nil && cfg.CacheTTL > 0 {
//	    resolver = identityredis.NewCache(rdb, resolver, cfg.CacheTTL)
//	}
//	mw := identity.NewMiddleware(resolver)
//	app.Post("/protected", mw.Authenticate(), handler)
//
// Handlers read the caller with identity.CallerFrom(c) or, from a plain
// context, kernel.CallerFrom(ctx).
package iam
