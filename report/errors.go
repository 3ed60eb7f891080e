package report

import (
	"fmt"
	"os"
)

// LocalCompileError is a compilation error that occurs in a context in which
// the file is known by the error handler and thus doesn't need to be passed
// along with the error.
type LocalCompileError struct {
	// The error message.
	Message string

	// The span over which the error occurs.
	Span *TextSpan
}

func (lce *LocalCompileError) Error() string {
	return lce.Message
}

// Raise creates a new local compile error.
func Raise(span *TextSpan, msg string, args ...interface{}) *LocalCompileError {
	return &LocalCompileError{Message: fmt.Sprintf(msg, args...), Span: span}
}

// -----------------------------------------------------------------------------

// CompileWarning is a warning attached to a region of source text: eg. a
// statement that can never execute.  Warnings never stop compilation.
type CompileWarning struct {
	// The representative path of the file containing the warned-about text.
	ReprPath string

	// The span over which the warning applies.  May be nil.
	Span *TextSpan

	// The warning message.
	Message string
}

// -----------------------------------------------------------------------------

// InternalError represents an internal compiler error: a bug or broken
// invariant inside the compiler itself, never erroneous user input.  It is
// raised as a panic so that intermediate compiler state unwinds cleanly and so
// that the condition can be asserted on in tests.
type InternalError struct {
	Message string
}

func (ie *InternalError) Error() string {
	return "internal compiler error: " + ie.Message
}

// ReportICE raises an internal compiler error as a panic.  The panic is
// expected to be recovered by a deferred CatchErrors at the compilation entry
// point and displayed there regardless of log level.
func ReportICE(message string, args ...interface{}) {
	panic(&InternalError{Message: fmt.Sprintf(message, args...)})
}

// ReportFatal reports a fatal error.  These are errors that should cause all
// compilation to stop immediately.  However, they are expected errors that
// generally result from invalid configuration of some form: a missing input
// file, an unreadable build profile, etc.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportCompileError reports a compilation error: ie. erroneous input code.
// The absPath is the absolute path to the erroneous source file.  The reprPath
// is the representative path to the erroneous source file.  The span may be
// nil in which case no position information will be printed.
func ReportCompileError(absPath, reprPath string, span *TextSpan, message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		rep.isErr = true
		rep.errorCount++

		displayCompileMessage("error", absPath, reprPath, span, fmt.Sprintf(message, args...))
	}
}

// ReportCompileWarning records a compilation warning.  Warnings are deferred:
// they accumulate on the reporter and are displayed by FlushWarnings once the
// current compilation unit finishes.
func ReportCompileWarning(reprPath string, span *TextSpan, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warnings = append(rep.warnings, &CompileWarning{
		ReprPath: reprPath,
		Span:     span,
		Message:  fmt.Sprintf(message, args...),
	})
}

// FlushWarnings displays all accumulated warnings and clears them.  It returns
// the warnings that were flushed.
func FlushWarnings() []*CompileWarning {
	rep.m.Lock()
	defer rep.m.Unlock()

	warnings := rep.warnings
	rep.warnings = nil
	rep.warningCount += len(warnings)

	if rep.logLevel > LogLevelError {
		for _, warning := range warnings {
			displayWarning(warning)
		}
	}

	return warnings
}

// ReportStdError reports a non-fatal, standard Go error.
func ReportStdError(reprPath string, err error) {
	if rep.logLevel > LogLevelError {
		rep.m.Lock()
		defer rep.m.Unlock()

		rep.isErr = true
		rep.errorCount++

		displayStdError(reprPath, err)
	}
}

// -----------------------------------------------------------------------------

// AnyErrors returns whether or not any errors were detected.
func AnyErrors() bool {
	return rep.isErr
}

// ReportCompilationFinished displays the concluding message of compilation.
func ReportCompilationFinished() {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayCompilationFinished(!rep.isErr, rep.errorCount, rep.warningCount)
	}
}

// -----------------------------------------------------------------------------

// CatchErrors catches any errors thrown by a `panic` during a stage of
// compilation.  In effect, this handler determines when any errors
// "unrecoverable" within a given subsection of the compiler should stop
// bubbling.
// NB: This function must ALWAYS be deferred.
func CatchErrors(absPath, reprPath string) {
	if x := recover(); x != nil {
		if cerr, ok := x.(*LocalCompileError); ok {
			ReportCompileError(
				absPath,
				reprPath,
				cerr.Span,
				cerr.Message,
			)
		} else if ierr, ok := x.(*InternalError); ok {
			displayICE(ierr.Message)
			os.Exit(-1)
		} else if serr, ok := x.(error); ok {
			ReportStdError(reprPath, serr)
		} else {
			ReportFatal("%s", x)
		}
	}
}
