package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"solis/generate"
	"solis/lower"
	"solis/report"
	"solis/sem"
)

// Compiler represents the overall state and configuration of compilation.
type Compiler struct {
	// The absolute path to the module root directory.
	rootPath string

	// The module being built.
	mod *Module

	// The selected build profile.
	profile *BuildProfile

	// The resolved contracts to build.
	contracts []*sem.Contract
}

// NewCompiler creates a new compiler for a module and profile.
func NewCompiler(rootPath string, mod *Module, profile *BuildProfile) *Compiler {
	return &Compiler{rootPath: rootPath, mod: mod, profile: profile}
}

// AddContract adds a resolved contract to the compiler.
func (c *Compiler) AddContract(contract *sem.Contract) {
	c.contracts = append(c.contracts, contract)
}

// Compile lowers every contract of the module and writes the output form the
// profile selects for each.  It returns whether compilation succeeded.
func (c *Compiler) Compile() bool {
	for _, contract := range c.contracts {
		c.compileContract(contract)
	}

	return !report.AnyErrors()
}

// compileContract runs the compilation phases over one contract.
func (c *Compiler) compileContract(contract *sem.Contract) {
	defer report.CatchErrors(contract.AbsPath, contract.ReprPath)

	unit := lower.LowerContract(contract)
	report.FlushWarnings()
	if report.AnyErrors() {
		return
	}

	switch c.profile.Emit {
	case EmitCFG:
		c.writeOutput(contract.Name+".cfg", dumpUnit(unit))
	case EmitLLVM:
		mod := generate.NewGenerator(unit).Generate()
		c.writeOutput(contract.Name+".ll", mod.String())
	}
}

// dumpUnit renders every graph of a unit in readable form.
func dumpUnit(unit *lower.Unit) string {
	sb := strings.Builder{}

	for _, graph := range unit.Graphs {
		if graph != nil {
			sb.WriteString(graph.Dump())
			sb.WriteRune('\n')
		}
	}

	return sb.String()
}

// writeOutput writes one output file into the profile's output directory.
func (c *Compiler) writeOutput(name, content string) {
	outDir := c.profile.OutputPath
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(c.rootPath, outDir)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		report.ReportFatal("failed to create output directory: %s", err.Error())
	}

	if err := ioutil.WriteFile(filepath.Join(outDir, name), []byte(content), 0644); err != nil {
		report.ReportFatal("failed to write output file `%s`: %s", name, err.Error())
	}
}
