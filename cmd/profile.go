package cmd

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"solis/common"
	"solis/report"

	"github.com/pelletier/go-toml"
)

// Module represents a Solis contract module: a directory of contract sources
// built together under a shared build file.
type Module struct {
	// The declared name of the module.
	Name string

	// The absolute path to the module root directory.
	AbsPath string

	// The build profiles declared by the module, in declaration order.
	Profiles []*BuildProfile
}

// BuildProfile represents one named build configuration of a module.
type BuildProfile struct {
	Name string

	// The directory compilation output is written into, relative to the
	// module root unless absolute.
	OutputPath string

	// The kind of output to produce.  One of the enumerated emit modes.
	Emit int

	Debug bool
}

// Enumeration of possible emit modes.
const (
	// EmitLLVM writes one LLVM IR text file per contract (default).
	EmitLLVM = iota

	// EmitCFG writes the readable function graphs of each contract instead
	// of generating backend code.
	EmitCFG
)

// tomlModule represents a Solis module as it is encoded in TOML.
type tomlModule struct {
	Name         string        `toml:"name"`
	SolisVersion string        `toml:"solis-version"`
	Profiles     []tomlProfile `toml:"profiles"`
}

// tomlProfile represents a build profile as it is encoded in TOML.
type tomlProfile struct {
	Name       string `toml:"name"`
	OutputPath string `toml:"output-path"`
	Emit       string `toml:"emit"`
	Debug      bool   `toml:"debug"`
}

// LoadModule loads and validates the module rooted at the given absolute
// path.  All load failures are fatal.
func LoadModule(abspath string) *Module {
	f, err := os.Open(filepath.Join(abspath, common.SolisProfileFileName))
	if err != nil {
		report.ReportFatal("unable to open module file at `%s`: %s", abspath, err.Error())
	}
	defer f.Close()

	buff, err := ioutil.ReadAll(f)
	if err != nil {
		report.ReportFatal("error reading module file at `%s`: %s", abspath, err.Error())
	}

	tomlMod := &tomlModule{}
	if err := toml.Unmarshal(buff, tomlMod); err != nil {
		report.ReportFatal("error parsing module file at `%s`: %s", abspath, err.Error())
	}

	if tomlMod.Name == "" {
		report.ReportFatal("module at `%s` is missing a module name", abspath)
	}

	if tomlMod.SolisVersion != "" && tomlMod.SolisVersion != common.SolisVersion {
		report.ReportCompileWarning(tomlMod.Name, nil,
			"module version (v%s) does not match current Solis version (v%s)",
			tomlMod.SolisVersion, common.SolisVersion,
		)
	}

	mod := &Module{Name: tomlMod.Name, AbsPath: abspath}
	for _, tomlProf := range tomlMod.Profiles {
		mod.Profiles = append(mod.Profiles, convertProfile(mod, tomlProf))
	}

	// a module without declared profiles still builds with the defaults
	if len(mod.Profiles) == 0 {
		mod.Profiles = append(mod.Profiles, &BuildProfile{Name: "default", OutputPath: "out"})
	}

	return mod
}

// convertProfile validates a deserialized profile and converts it into its
// in-memory form.
func convertProfile(mod *Module, tomlProf tomlProfile) *BuildProfile {
	if tomlProf.Name == "" {
		report.ReportFatal("module `%s` declares a profile with no name", mod.Name)
	}

	prof := &BuildProfile{
		Name:       tomlProf.Name,
		OutputPath: tomlProf.OutputPath,
		Debug:      tomlProf.Debug,
	}

	if prof.OutputPath == "" {
		prof.OutputPath = "out"
	}

	switch tomlProf.Emit {
	case "", "llvm":
		prof.Emit = EmitLLVM
	case "cfg":
		prof.Emit = EmitCFG
	default:
		report.ReportFatal("profile `%s` of module `%s` has unknown emit mode `%s`", prof.Name, mod.Name, tomlProf.Emit)
	}

	return prof
}

// SelectProfile returns the profile with the given name, or the module's
// first profile if the name is empty.  Selecting an undeclared profile is
// fatal.
func (mod *Module) SelectProfile(name string) *BuildProfile {
	if name == "" {
		return mod.Profiles[0]
	}

	for _, prof := range mod.Profiles {
		if prof.Name == name {
			return prof
		}
	}

	report.ReportFatal("module `%s` has no profile named `%s`", mod.Name, name)
	return nil
}
