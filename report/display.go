package report

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
)

var (
	successColorFG = pterm.FgLightGreen
	successStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	warnColorFG    = pterm.FgYellow
	warnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	errorColorFG   = pterm.FgRed
	errorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
)

// DisplayInfoMessage prints an informational message to the user.
func DisplayInfoMessage(tag, msg string) {
	successStyleBG.Print(tag)
	successColorFG.Println(" " + msg)
}

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	errorStyleBG.Print("internal compiler error")
	errorColorFG.Println(" " + message)
	fmt.Print("This error was not supposed to happen: please open an issue on GitHub\n\n")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	errorStyleBG.Print("fatal error")
	errorColorFG.Println(" " + message)
	fmt.Println()
}

// displayCompileMessage displays a compilation error.  The label is the string
// to prefix the message with: eg. if we want to display an error, the label is
// "error".
func displayCompileMessage(label, absPath, reprPath string, span *TextSpan, message string) {
	if span == nil {
		fmt.Printf("%s: %s: %s\n\n", reprPath, label, message)
	} else {
		fmt.Printf("%s:%d:%d: %s: %s\n\n", reprPath, span.StartLine+1, span.StartCol+1, label, message)
		displaySourceText(absPath, span)
	}
}

// displayWarning displays an accumulated compilation warning.
func displayWarning(warning *CompileWarning) {
	warnStyleBG.Print("warning")

	if warning.Span == nil {
		warnColorFG.Printf(" %s: %s\n", warning.ReprPath, warning.Message)
	} else {
		warnColorFG.Printf(
			" %s:%d:%d: %s\n",
			warning.ReprPath,
			warning.Span.StartLine+1,
			warning.Span.StartCol+1,
			warning.Message,
		)
	}
}

// displayCompilationFinished displays a compilation finished message.
func displayCompilationFinished(success bool, errorCount, warningCount int) {
	fmt.Print("\n")

	if success {
		successColorFG.Print("All done! ")
	} else {
		errorColorFG.Print("Oh no! ")
	}

	fmt.Print("(")

	switch errorCount {
	case 0:
		successColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		errorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		errorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		successColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		warnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		warnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}

// displayStdError displays a standard Go error.
func displayStdError(reprPath string, err error) {
	fmt.Printf("%s: error: %s\n\n", reprPath, err)
}

// -----------------------------------------------------------------------------

// displaySourceText displays a segment of source text defined by a text span.
func displaySourceText(absPath string, span *TextSpan) {
	// Open the file so we can read the desired source text.
	file, err := os.Open(absPath)
	if err != nil {
		return
	}
	defer file.Close()

	// Collect all the source lines containing the given source text.
	var lines []string
	sc := bufio.NewScanner(file)
	for ln := 0; sc.Scan(); ln++ {
		if span.StartLine <= ln && ln <= span.EndLine {
			lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		}
	}

	if err := sc.Err(); err != nil {
		return
	}

	// Calculate the minimum line indentation.
	minIndent := math.MaxInt
	for _, line := range lines {
		lineIndent := 0
		for _, c := range line {
			if c == ' ' {
				lineIndent++
			} else {
				break
			}
		}

		if lineIndent < minIndent {
			minIndent = lineIndent
		}
	}

	// Calculate the maximum line number length.
	maxLineNumLen := len(strconv.Itoa(span.EndLine + 1))

	// Generate the format string for line numbers.
	lineNumFmtStr := "%-" + strconv.Itoa(maxLineNumLen) + "v | "

	for i, line := range lines {
		// Print the line number and separator bar.
		fmt.Printf(lineNumFmtStr, i+span.StartLine+1)

		// Print the source text with the leading indent trimmed off.
		fmt.Println(line[minIndent:])

		// Print the line and bar used for the line for carret underlining.
		fmt.Print(strings.Repeat(" ", maxLineNumLen), " | ")

		// Calculate the number of spaces before carret underlining begins.
		// For any line which is not the starting line, this is always zero
		// since the underlining is always continuing from the previous line.
		var carretPrefixCount int
		if i == 0 {
			carretPrefixCount = span.StartCol - minIndent
		}

		// Calculate the number of characters at the end of the source line
		// that should not be underlined.  For all lines except the last line,
		// this is zero, since underlining spans until the end of the line and
		// over onto the next line.
		var carretSuffixCount int
		if i == len(lines)-1 {
			carretSuffixCount = len(line) - span.EndCol
		}

		fmt.Print(strings.Repeat(" ", carretPrefixCount))
		errorColorFG.Println(strings.Repeat("^", len(line)-minIndent-carretPrefixCount-carretSuffixCount))
	}

	fmt.Println()
}
