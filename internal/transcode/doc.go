// Package transcode converts between nested secret documents and the flat,
// ordered list of (path, value) pairs that sopsmith edits.
//
// # Paths
//
// Object keys are joined with dots and array elements use a bracketed
// index with no dot before it:
//
//	{"db": {"hosts": ["a", "b"]}}  ->  db.hosts[0]=a, db.hosts[1]=b
//
// The top-level "sops" key holds encryption metadata and never appears in
// a flattened list.
//
// # Writing back
//
// Unflatten rebuilds nested objects by splitting paths on dots and infers a
// typed scalar for each value with Infer: "true" becomes a boolean, "42" a
// number, and a value wrapped in quotes ("\"42\"") stays a string. Paths
// with array indexes are rejected with ErrArrayPath because the element
// order and length cannot be reconstructed safely.
//
// # Line formats
//
// Dotenv and INI have no structural quoting of their own. Quote and Unquote
// implement the quoting contract used when sopsmith reads or renders those
// formats as plain text; Unquote(Quote(s)) == s for every s.
package transcode
