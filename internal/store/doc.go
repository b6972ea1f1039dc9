// Package store is a small JSON document store on database/sql.
//
// Documents live in one table keyed by id and grouped by collection and
// owner. The default driver is modernc.org/sqlite with the database file in
// the config directory; go-sql-driver/mysql serves shared deployments.
//
// # Live Queries
//
// Watch delivers the owner's documents immediately and after every write
// made through the same Store. Follow additionally picks up writes from
// other processes by watching the sqlite files with fsnotify.
//
//	sub := st.Watch(ctx, "flights", uid, func(s store.Snapshot) {
//	    render(s.Docs)
//	})
//	defer sub.Unsubscribe()
package store
