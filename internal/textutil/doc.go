// Package textutil provides the text helpers shared by the generators:
// lenient {name} template binding for user-edited prompts, question
// normalization for duplicate detection, CJK detection for English-only
// output, and example-list parsing.
package textutil
