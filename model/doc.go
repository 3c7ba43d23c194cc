// Package model provides the intermediate representation (IR) produced by the
// docstruct pipeline.
//
// This package defines the user-facing data structures that describe the
// semantic structure of a template document. Every stage of the pipeline
// consumes or produces these types, making them the primary API for consuming
// analysis results.
//
// # Input
//
// A [RawDocument] carries the markup of a document together with its
// [Dialect]: word-processor XML or exported rich-text HTML.
//
// # Elements
//
// Dialect readers turn markup into [Node] values. The classifier assigns each
// node an [ElementKind], producing an ordered sequence of [Element] values:
//
//   - [KindTitle], [KindHeading1], [KindHeading2], [KindHeading3]
//   - [KindParagraph] and [KindList]
//   - [KindTable] - rows of cell text, see [Table]
//   - [KindSignature] - closing/signature blocks
//
// Element order is the document's reading order and survives JSON round trips.
//
// # Placeholders
//
// A [PlaceholderCandidate] is a text span that probably varies per document
// instance. Candidates are typed, scored 0-100 and carry a [NormalizedValue]
// when their literal could be projected onto a typed value.
//
// # Document Model
//
// [DocumentModel] aggregates elements, sections, tables, placeholders and the
// optional signature together with run [Diagnostics]. A model is created once
// per pipeline run and is never mutated afterwards.
package model
