/*
Package httpcore implements the core of an embeddable HTTP/1.x server
library.

httpcore accepts TCP (optionally TLS-wrapped) connections, parses
successive requests off each connection, and delivers them to the
application through a single inbound channel exposed by Server. The
application builds a Response and hands it to the Request's response
sink; httpcore takes care of:

  - choosing response framing (identity / chunked / connection-close)
    compatible with the negotiated HTTP version,
  - honoring request pipelining while still writing responses back in
    strict arrival order even if the application answers them out of
    order,
  - Expect: 100-continue,
  - connection upgrade (escaping to a raw bidirectional stream after a
    101 response),
  - an elastic worker pool that spawns one goroutine per connection and
    reclaims idle ones after a grace period.

Routing, TLS certificate issuance, compression negotiation and URL
semantics are not part of this package.
*/
package httpcore
