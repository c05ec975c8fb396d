// Package form is the field-tree resolution engine.
//
// A Store turns a declarative field tree (see package field) into an arena of
// resolved fields, each with a stable ID, a key-path into the values document,
// and its computed visibility, props and validator routine. The store keeps
// that arena in step with a form-state provider (see package formstate):
//
//   - the Normalizer expands `array` templates to match the current value
//     length and assigns identities and key-paths;
//   - every commit on the provider triggers a recompute pass that re-evaluates
//     the `hide` and `props.*` expressions the change can affect, applies
//     disabled/required/readonly/hide inheritance, resets hidden fields and
//     keeps validator registrations tied to visible, bound fields;
//   - the Array Controller (Add, Append, Remove) mutates the values, touched
//     and errors collections and the arena in lockstep.
//
// Recompute passes repeat until no further commit is produced, bounded by
// WithMaxSettlePasses. Subscribers are notified once per settled transition
// with the IDs of the fields whose resolved state changed.
package form
