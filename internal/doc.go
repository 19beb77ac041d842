// Package internal holds the Royal House CMS server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses and routing
// - domain: business rules for administration, media, updates, admins and login
// - storage: PostgreSQL repositories, migrations and the upload store
// - auth, audit, config, email, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
