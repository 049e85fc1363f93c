package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"max_parallel":           4,
		"history_limit":          1000,
		"state_dir":              "~/.pipecheck/state",
		"persist_history":        true,
		"max_history_entries":    500,
		"retry_enabled":          false,
		"retry_initial_interval": 500,
		"retry_max_interval":     10000,
		"log_level":              "warn",
		"show_progress":          true,
		"fixtures_file":          "",

		"notify_enabled":                false,
		"notify_type":                   "both",
		"notify_sound_file":             "",
		"notify_on_complete":            true,
		"notify_on_step_failure":        true,
		"notify_long_running_threshold": 0,
	}
}
