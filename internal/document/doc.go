// Package document defines Value, the structural representation of a
// decrypted secret document, and its JSON and YAML codecs.
//
// A Value is a tagged union over Null, Bool, Number, String, Array and
// Object. Objects keep their keys in document order, so a document that is
// decoded and encoded again lists its secrets in the order the user wrote
// them. Numbers keep their textual form ("42", "3.14") alongside the float64
// value so that integers never turn into "42.0" on the way back to sops.
//
// JSON is the exchange format with the sops binary in both directions:
//
//	v, err := document.DecodeJSON(plaintext)
//	out, err := document.EncodeJSON(v)
//
// YAML decoding is used only for reading encrypted YAML files directly,
// for example to find encrypted fields and recipients without running sops.
package document
