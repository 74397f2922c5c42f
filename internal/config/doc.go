// Package config provides configuration management for the autocompleted
// service.
//
// Configuration is loaded from multiple sources in priority order (highest
// wins):
//  1. Default values in code (lowest priority)
//  2. base.yaml - common configuration for all environments
//  3. {environment}.yaml - environment-specific overrides
//  4. local.yaml - local developer overrides (gitignored, development only)
//  5. Environment variables (highest priority)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("invalid configuration:", err)
//	}
//
// In development, configuration can be hot-reloaded:
//
//	watcher, _ := config.NewWatcher(cfg, "config", logger)
//	watcher.OnChange(func(newCfg *config.Config) {
//	    index.SetMaxCachePrefixLen(newCfg.Cache.MaxPrefixLen)
//	})
//	defer watcher.Stop()
package config
