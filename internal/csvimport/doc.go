// Package csvimport turns an uploaded CSV file into field-keyed records.
//
// The package has no database, HTTP or logging dependencies. It is used by
// the core service, the CLI and tests without modification.
//
// # Flow
//
//  1. [ReadText] reads the upload once (size limit, BOM, UTF-8 cleanup)
//  2. [Parse] splits the text into a [RawTable] of headers and rows
//  3. [AutoMap] proposes a [ColumnMapping] for every header using [Synonyms]
//  4. [Mappings.Assign] and [Mappings.Skip] apply manual overrides
//  5. [Ready] gates the import on required target fields
//  6. [Transform] produces one [Record] per data row
//  7. An [ImportFunc] supplied by the caller persists the records
//
// [Session] wraps the flow in a state machine so a second import cannot
// start while one is in flight.
//
// # Values
//
// Every record value is the raw cell string. Type coercion belongs to the
// ImportFunc, never to this package.
package csvimport
