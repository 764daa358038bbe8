// Package config provides application configuration management.
//
// The config package handles loading and validation of the application's
// configuration from YAML files and COMPILEBOX_* environment variables. It
// covers server transport, the compile and execute budgets, workspace roots
// and the external toolchain commands.
//
// Usage:
//
//	cfg, err := config.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Compile budget: %s\n", cfg.CompileTimeout())
package config
