// Package gorepo provides a generic CRUD repository with filtering, ordering
// and pagination over GORM.
//
// Overview
//
// gorepo is built around two pieces:
//   - Query composer: Repository.Compose turns an optional set of includes,
//     a Filter, Orderings and a tracking mode into a lazily evaluated Query.
//     Every column and relation is checked against the model schema before
//     anything reaches the database.
//   - Pagination engine: List and Paginate window a Query with 1-based
//     LIMIT/OFFSET paging. Paginate also counts the filtered dataset and
//     returns a PaginatedResult with the total number of pages.
//
// Single-record operations (GetByID, Create, Update, Delete, DeleteByID) run
// on a fresh GORM session per call. The repository never keeps a reference
// to the entities it is given, so the same instance may be passed to any
// number of mutating calls.
//
// Key concepts
//   - Entity: any model exposing GetID/SetID for its primary key.
//   - Filter: a predicate in disjunctive normal form over model columns.
//   - Orderings: multi-column ordering with explicit directions.
//   - PageRequest: 1-based page index and page size. A zero index or size
//     disables windowing.
//
// Pagination over an unordered query is valid but page boundaries are only
// stable when the caller supplies an ordering.
package gorepo
