// Package keys loads age identities from the sops key file and matches
// them against the recipients of an encrypted document.
//
// The key file holds one AGE-SECRET-KEY-1... line per key, optionally
// preceded by comment lines. age-keygen writes "# created:" and
// "# public key:" comments; any other comment directly above a key is
// treated as its label.
//
// Public keys are derived lazily through a Deriver, normally the
// age-keygen binary, and cached on the Record so each key is derived at
// most once per process.
package keys
