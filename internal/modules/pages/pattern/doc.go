// Package pattern tokenizes template patterns and extracts their placeholders.
//
// Grammar:
//
//	pattern     = { text | placeholder }
//	placeholder = "{" name "}" | "[" name "]"
//	name        = one or more characters other than "{", "}", "[", "]"
//
// An opener without its closer, an opener nested inside a placeholder, and an
// empty name are parse errors. A stray closer is ordinary text.
package pattern
