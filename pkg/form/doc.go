// Package form defines the records collected by the request and approval
// wizards, the partial-update reducer used by the state store, and the error
// taxonomy shared by the other packages.
//
// JSON field names follow the persisted session format, so a snapshot written
// by one run can be imported by another without translation.
package form
