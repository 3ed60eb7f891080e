package common

// SolisVersion is the current Solis version as a string.
const SolisVersion string = "0.1.0"

// SolisProfileFileName is the name for Solis build profile files.
const SolisProfileFileName string = "solis-build.toml"

// SolisFileExt is the file extension for a Solis source file.
const SolisFileExt string = ".sol"
