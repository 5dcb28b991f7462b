// Package config provides configuration loading and validation for lockbox.
//
// The package handles YAML configuration files, .env files, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. A .env file in the working directory
//  4. Environment variables (LOCKBOX_ prefix)
//  5. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with LOCKBOX_ prefix:
//   - server.port → LOCKBOX_SERVER_PORT
//   - store.type → LOCKBOX_STORE_TYPE
//   - classifier.user_agents → LOCKBOX_CLASSIFIER_USER_AGENTS (comma separated)
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev or prod, selects the log handler
//   - Server: port, public_url, max_upload_bytes, shutdown_timeout
//   - Store: backend type, DSN, and items table or namespace
//   - Service: bcrypt_cost and list_page_size
//   - Keys: token signing keys (inline or JSON file) and the active key id
//   - Classifier: page segment, auth scheme, detection rules, token lifetimes
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// With no classifier.user_agents and no classifier.required_headers every
// request is treated as a normal client.
package config
