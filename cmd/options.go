package cmd

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LoadConfigFunc loads the configuration of a project directory
type LoadConfigFunc func(dir string) (*Config, error)

// SaveConfigFunc writes a configuration file
type SaveConfigFunc func(path string, cfg *Config) error

// Options are the global settings handed to every command. Logger is set by
// the root command before any command runs.
type Options struct {
	// Dir is the project directory holding the repository and the config file
	Dir    string
	Logger zerolog.Logger
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

// NewOptions returns options bound to the process streams
func NewOptions() *Options {
	return &Options{
		Dir:    ".",
		Logger: zerolog.Nop(),
		In:     os.Stdin,
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
}
