// Package validation composes a field's validator declarations into one
// sequential routine.
//
// Props-implied validators (currently `required`) run before the declared
// ones. The routine stops at the first failing validator and reports its
// message. Validators the registry does not know are skipped with a warning.
package validation
