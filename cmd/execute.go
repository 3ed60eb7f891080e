// Package cmd is the top-level "driver" package for the Solis compiler: it
// contains all the functionality for parsing command-line arguments, loading
// build profiles, and running the phases of the compiler over a contract
// module.
package cmd

import (
	"os"
	"path/filepath"

	"solis/common"
	"solis/report"

	"github.com/ComedicChimera/olive"
)

// Execute is the main entry point for the `solisc` CLI utility.
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("solisc", "solisc is a tool for building Solis contract modules", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	buildCmd := cli.AddSubcommand("build", "compile a contract module", true)
	buildCmd.AddPrimaryArg("module-path", "the path to the module to build", true)
	buildCmd.AddStringArg("profile", "p", "the name of the profile to build", false)

	cli.AddSubcommand("version", "print the Solis version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		report.InitReporter(report.LogLevelVerbose)
		report.ReportFatal("%s", err.Error())
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "build":
		execBuildCommand(subResult, result.Arguments["loglevel"].(string))
	case "version":
		report.DisplayInfoMessage("Solis Version", common.SolisVersion)
	}
}

// execBuildCommand executes the build subcommand and handles all errors.
func execBuildCommand(result *olive.ArgParseResult, loglevel string) {
	// initialize the reporter
	report.InitReporter(logLevelFromString(loglevel))

	// get the primary argument: the module root path
	rootPath, _ := result.PrimaryArg()
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		report.ReportFatal("failed to resolve module path: %s", err.Error())
	}

	// the profile argument is optional; an empty name selects the module's
	// first declared profile
	selectedProfile := ""
	if profArgVal, ok := result.Arguments["profile"]; ok {
		selectedProfile = profArgVal.(string)
	}

	// load the module file and select the requested build profile
	mod := LoadModule(absPath)
	profile := mod.SelectProfile(selectedProfile)

	// create the compiler
	c := NewCompiler(absPath, mod, profile)

	// TODO: parse and resolve the module's source files here once the
	// frontend packages land.  Until then, built contracts are supplied
	// through AddContract by embedding tools and tests.

	c.Compile()

	// display the concluding message of compilation
	report.ReportCompilationFinished()
}

// logLevelFromString converts a log level argument into a log level constant.
func logLevelFromString(loglevel string) int {
	switch loglevel {
	case "silent":
		return report.LogLevelSilent
	case "error":
		return report.LogLevelError
	case "warn":
		return report.LogLevelWarn
	default:
		return report.LogLevelVerbose
	}
}
