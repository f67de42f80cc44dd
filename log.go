package szprechal

import "log"

var verboseMode bool

// SetVerbose toggles debug-level logging for the whole package.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// VerboseLog writes a debug log line when verbose mode is on.
func VerboseLog(format string, v ...interface{}) {
	if verboseMode {
		log.Printf("[debug] "+format, v...)
	}
}
