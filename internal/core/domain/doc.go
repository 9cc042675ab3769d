// Package domain contains the core business entities and rules for the
// concierge query engine: query analysis, query plans, predicates, result
// sets, entity profiles and the configuration that tunes scoring and
// analytics. Domain types have no dependency on adapters or external
// services.
package domain
