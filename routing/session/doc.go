// Package session keeps step-driven searches alive between requests.
//
// A search is started by the route service, registered here under a random
// UUID and advanced by later calls that look it up by ID. Each entry carries
// the cancel function of the search context, so deleting or expiring an entry
// also stops the search.
//
// Concurrency:
//
// The manager is safe for concurrent use. It guards its map with an RWMutex;
// the per-search lock embedded in service.Session guards the search itself
// and its last access time.
//
// Usage:
//
//	manager := session.NewManager()
//
//	s, err := manager.Create("classic", search, cancel)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Drop searches idle for more than an hour
//	removed := manager.CleanupExpiredSessions(time.Hour)
package session
