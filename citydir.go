// Package citydir provides the business and organization directory of a
// municipal information website: a paginated, filterable, sortable query
// engine over directory entries, the mutation gateway that edits them, and
// the client-side list controller that keeps a table view consistent with
// both.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, http/, goquery/).
package citydir
