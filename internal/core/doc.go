// Package core holds the import workflow for the DetailFlow dashboard.
//
// It sits between the transport layer and storage: handlers call the
// [Service], the Service drives a [csvimport.Session] per upload and
// hands finished batches to a [Sink]. Nothing here knows about HTTP.
//
// # Import Kinds
//
// Each kind of record a business can import is registered at init time
// with [Register]. A [KindDefinition] lists the target fields shown in the
// mapping UI and the database table the fields land in:
//
//	core.Register(core.KindDefinition{
//	    Info:   core.KindInfo{Key: "customers", Label: "Customers"},
//	    Fields: []csvimport.TargetField{{Key: "name", Label: "Name", Required: true}},
//	    Target: store.Target{Table: "customers", Columns: ...},
//	})
//
// # Session Lifecycle
//
//  1. [Service.StartImport] reads the upload, parses it and proposes a mapping
//  2. [Service.UpdateMapping] applies manual edits until every required field is mapped
//  3. [Service.PreviewRecords] shows the records as they will be written
//  4. [Service.CommitImport] writes every record in one transaction
//
// Sessions are scoped to the business that created them and are dropped
// after a period of inactivity by [Service.StartSessionSweeper].
//
// # Concurrency
//
// Commits are bounded by an [ImportLimiter] and serialized per business
// and kind through a lock.Locker, so two tabs cannot import the same file
// twice at once.
//
// # Error Handling
//
// Technical errors are mapped to user messages with codes using
// [MapError]. See error_messages.go for the code table.
package core
