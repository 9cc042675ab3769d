// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the document store, the generative model and
// the query log.
package driven
