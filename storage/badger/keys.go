package badger

import (
	"fmt"

	"github.com/quellwerk/concierge/core"
)

// Key prefixes for different data types. Session and chunk keys carry the
// tenant id as the second component, so tenant partitioning is a property
// of the key space itself.
const (
	sessionPrefix = "ses"
	chunkPrefix   = "chu"
	cachePrefix   = "cch"
	ticketPrefix  = "tik"
	ticketIDSeq   = "tikseq"
)

// makeSessionKey generates a key for a session.
// Format: ses:tenant:sessionID
func makeSessionKey(tenantID, sessionID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", sessionPrefix, tenantID, sessionID))
}

// makeChunkKey generates a key for a knowledge chunk.
// Format: chu:tenant:id
func makeChunkKey(tenantID string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", chunkPrefix, tenantID, id))
}

// makeChunkTenantPrefix generates the iteration prefix covering all chunks
// of one tenant.
func makeChunkTenantPrefix(tenantID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkPrefix, tenantID))
}

// makeCacheKey generates a key for a cached response. The fingerprint
// already has the tenant id hashed in as its first component.
// Format: cch:fingerprint
func makeCacheKey(fingerprint core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", cachePrefix, fingerprint))
}

// makeTicketKey generates a key for an escalation ticket.
// Format: tik:id
func makeTicketKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", ticketPrefix, id))
}
