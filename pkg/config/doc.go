// Package config loads runtime configuration for a note-taking client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   path of the local database file
//	-r string   base URL of the sync server
//	-s string   base URL of the assistant service
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be either strings like "1s" or
// integer nanoseconds:
//
//	{
//	  "database_path": "offnote.db",
//	  "remote_base_url": "https://sync.example.com",
//	  "ai_base_url": "https://ai.example.com",
//	  "debounce_interval": "1s",
//	  "online_check_interval": "3s"
//	}
//
// This package does not read environment variables; use the JSON file or
// flags.
package config
