// Package state holds immutable editor states and the plugin pipeline that
// produces them.
//
// A State bundles a document revision, a selection and one value per
// registered plugin. States are never modified; ApplyTransaction returns a
// new State, so readers always see a fully formed snapshot.
//
// # Dispatch cycle
//
// For each transaction:
//
//  1. FilterTransaction runs for every plugin in registration order. A single
//     false vetoes the transaction and the state is unchanged.
//  2. The transaction's document becomes current and every plugin's Apply
//     reducer computes its new value.
//  3. AppendTransaction runs once for every plugin. A returned follow-up is
//     filtered and applied like the original but never triggers another
//     append round, so a dispatch always terminates.
//
// Plugin values are passed explicitly through the State; there is no global
// plugin state.
package state
