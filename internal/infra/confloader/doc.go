// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Defaults supplied with WithDefaults
//  2. A YAML file (WithConfigFile)
//  3. Environment variables with the QUICKVOTE_ prefix
//
// Environment names are matched against the known keys, so
// QUICKVOTE_STORAGE_DATA_DIR resolves to storage.data_dir rather than
// storage.data.dir. Unknown names fall back to one segment per underscore.
//
// Watcher reports changes to a config file so the caller can reload it.
package confloader
