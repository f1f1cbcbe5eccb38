// Package logger provides leveled logging for sopsmith commands and the
// secret engine.
//
// # Verbosity Levels
//
//   - --verbose: Shows info messages
//   - --debug: Shows all messages including debug details
//
// Warnings and errors are always shown.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Always shown
//	Logger.WarnfAlways()    // Always shown, for user-facing warnings
//	Logger.Errorf()         // Always shown
//	Logger.ErrorfAndReturn() // Logs with --debug and returns the error
//
// # Usage
//
//	log := Logger{Verbose: verbose, Debug: debug}
//	log.Infof("Decrypting %s", path)
//
// The engine packages take a Logger value instead of reading a global, so
// tests can pass Logger{Out: &buf, Err: &buf} and inspect the output.
package logger
