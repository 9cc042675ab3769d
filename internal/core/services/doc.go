// Package services implements the query engine use cases: intent analysis,
// plan generation, predicate sanitization, multi-collection execution,
// post-processing, relevance scoring, competitive analytics and response
// synthesis. Services depend only on domain types and driven ports.
package services
