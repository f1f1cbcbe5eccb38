// Package audit records what sopsmith did to which documents.
//
// Every operation that writes a document or the key file is appended to a
// per-user log. Values are never written to the log; only the document
// path, the entry paths touched and counts.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	$XDG_STATE_HOME/sopsmith/audit.jsonl
//
// Each entry carries a session ID generated once per process, so the
// entries written by one invocation can be grouped.
//
// # Usage
//
//	entry := audit.New("save")
//	entry.File = path
//	entry.Count = len(entries)
//	audit.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
package audit
