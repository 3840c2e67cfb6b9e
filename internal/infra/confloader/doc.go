// Package confloader loads layered configuration for rollcall binaries.
//
// Sources are merged with koanf in increasing priority:
//
//  1. Defaults supplied by the caller
//  2. A YAML configuration file
//  3. ROLLCALL_ environment variables
//  4. Explicit overrides (command-line flags)
//
// Environment keys use a double underscore as the nesting separator so that
// snake_case keys survive: ROLLCALL_STORAGE__DATA_DIR maps to
// storage.data_dir.
//
// Watcher reports changes to the configuration file so that reloadable
// settings (currently the log level) can be applied without a restart.
package confloader
