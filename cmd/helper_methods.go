package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/PolarWolf314/sopsmith/internal/configs"
	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		if !verbose && !debug {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// reportedError marks a failure whose message was already shown to the user.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by a command, so
// main only needs to set the exit status.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// fail shows err on the spinner and returns it marked as reported.
// Unexpected errors are returned unmarked so main prints them in full.
func fail(s *spinner.Spinner, err error) error {
	s.FinalMSG = formatError(err)
	if isUnexpectedError(err) {
		return Logger.ErrorfAndReturn("%v", err)
	}
	return &reportedError{err: err}
}

// formatError renders a workflow error with a hint on how to fix it.
func formatError(err error) string {
	cross := ui.Error.Sprint("✗") + " "
	arrow := "\n" + ui.Info.Sprint("→") + " "

	var mismatch *workflows.KeyMismatchError
	if errors.As(err, &mismatch) {
		msg := cross + "The selected key cannot decrypt " + ui.Path.Sprint(mismatch.Path)
		switch {
		case len(mismatch.Candidates) > 0:
			msg += arrow + "Keys listed as recipients: " + strings.Join(mismatch.Candidates, ", ") +
				arrow + "Retry with " + ui.Flag.Sprint("--key-index") + " set to one of them"
		case len(mismatch.Recipients) > 0:
			msg += arrow + "None of your keys is a recipient. The document is encrypted for:"
			for _, r := range mismatch.Recipients {
				msg += "\n    " + ui.Recipient.Sprint(r)
			}
		default:
			msg += arrow + "The document lists no age recipients"
		}
		return msg
	}

	switch {
	case errors.Is(err, kerrors.ErrBinaryNotFound):
		return cross + "A required tool is not installed: " + err.Error() +
			arrow + "Install sops and age, or set " + ui.Code.Sprint("sops_binary") + " in " +
			ui.Path.Sprint(configs.UserSettings.ConfigPath)

	case errors.Is(err, kerrors.ErrFileNotFound):
		return cross + "File not found: " + err.Error()

	case errors.Is(err, kerrors.ErrKeyNotFound):
		return cross + "Key not found: " + err.Error() +
			arrow + "Run " + ui.Code.Sprint("sopsmith keys list") + " to see your keys"

	case errors.Is(err, kerrors.ErrInvalidKey):
		return cross + "Invalid age key: " + err.Error()

	case errors.Is(err, kerrors.ErrDecryptFailed):
		return cross + "Failed to decrypt: " + err.Error() +
			arrow + "Run " + ui.Code.Sprint("sopsmith keys match <file>") + " to check which keys can open it"

	case errors.Is(err, kerrors.ErrEncryptFailed):
		return cross + "Failed to encrypt, the file was left as it was: " + err.Error()

	case errors.Is(err, kerrors.ErrStructureConflict), errors.Is(err, kerrors.ErrArrayPath):
		return cross + "Cannot save: " + err.Error() +
			arrow + "Rename or remove the conflicting path and try again"

	case errors.Is(err, kerrors.ErrEntryNotFound):
		return cross + err.Error() +
			arrow + "Run " + ui.Code.Sprint("sopsmith show <file>") + " to list the paths"

	case errors.Is(err, kerrors.ErrInvalidPath):
		return cross + err.Error()

	case errors.Is(err, kerrors.ErrUnsupportedFormat):
		return cross + err.Error() +
			arrow + "Use one of: json, yaml, dotenv, ini"

	case errors.Is(err, kerrors.ErrFileExists):
		return cross + err.Error() +
			arrow + "Choose another name, or use " + ui.Flag.Sprint("--force") + " where supported"

	case errors.Is(err, kerrors.ErrManifestExists):
		return cross + err.Error() +
			arrow + "Edit the existing " + ui.Path.Sprint(".sops.yaml") + " instead"

	case errors.Is(err, kerrors.ErrNoRecipients):
		return cross + err.Error() +
			arrow + "Select keys with " + ui.Flag.Sprint("--key-index") + " or " + ui.Flag.Sprint("--public-key")

	case errors.Is(err, kerrors.ErrManifestNotFound):
		return cross + err.Error() +
			arrow + "Run " + ui.Code.Sprint("sopsmith init") + " first"

	case errors.Is(err, kerrors.ErrParse):
		return cross + "Malformed content: " + err.Error()

	case errors.Is(err, kerrors.ErrInvalidDateFormat):
		return cross + err.Error()

	case errors.Is(err, kerrors.ErrNoAuditLog):
		return ui.Info.Sprint("ℹ") + " No audit log found. Operations are logged once you open or change a document."

	default:
		return cross + err.Error()
	}
}

// isUnexpectedError reports whether err is not one of the known failures.
func isUnexpectedError(err error) bool {
	var mismatch *workflows.KeyMismatchError
	if errors.As(err, &mismatch) {
		return false
	}
	for _, known := range []error{
		kerrors.ErrBinaryNotFound,
		kerrors.ErrFileNotFound,
		kerrors.ErrKeyNotFound,
		kerrors.ErrInvalidKey,
		kerrors.ErrDecryptFailed,
		kerrors.ErrEncryptFailed,
		kerrors.ErrStructureConflict,
		kerrors.ErrArrayPath,
		kerrors.ErrEntryNotFound,
		kerrors.ErrInvalidPath,
		kerrors.ErrUnsupportedFormat,
		kerrors.ErrFileExists,
		kerrors.ErrManifestExists,
		kerrors.ErrNoRecipients,
		kerrors.ErrManifestNotFound,
		kerrors.ErrParse,
		kerrors.ErrInvalidDateFormat,
		kerrors.ErrNoAuditLog,
	} {
		if errors.Is(err, known) {
			return false
		}
	}
	return true
}

// resolveDocument expands "@n" to the n-th favorite (1-based).
func resolveDocument(arg string, config *configs.Config) (string, error) {
	if !strings.HasPrefix(arg, "@") {
		return arg, nil
	}
	n, err := strconv.Atoi(arg[1:])
	if err != nil {
		return arg, nil
	}
	if n < 1 || n > len(config.Favorites) {
		return "", fmt.Errorf("%w: favorite %s, you have %d favorites", kerrors.ErrFileNotFound, arg, len(config.Favorites))
	}
	return config.Favorites[n-1], nil
}

// confirmAction prompts the user to confirm a destructive operation.
func confirmAction(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(question + " [y/N]: ")
	response, err := reader.ReadString('\n')
	if err != nil {
		Logger.Errorf("Failed to read response: %v", err)
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
