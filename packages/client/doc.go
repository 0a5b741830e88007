// Package client implements the request-construction pipeline at the heart of
// conduit.
//
// A Connector describes a base API (URL, default properties, default
// authentication) and a Request describes a single endpoint. Sending a
// Request through its Connector merges their property bags, applies the
// resolved authenticator, runs boot hooks and plugins, and produces an
// immutable PendingRequest that is handed to a Sender (or a mock client) for
// dispatch:
//   - Connector + Request property bags merge (request wins on key conflicts)
//   - Authenticator resolution: request-level, else connector-level, else none
//   - Boot hooks: connector first, then request
//   - Plugins: connector's before the request's
package client
