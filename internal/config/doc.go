// Package config loads the fncall configuration.
//
// Values come, in increasing order of precedence, from built-in defaults, an
// optional YAML file (fncall.yaml in the working directory or $HOME/.fncall,
// or an explicit path), a .env file and FNCALL_ prefixed environment
// variables, with dots in keys replaced by underscores
// (FNCALL_PROVIDER_MODEL overrides provider.model). API keys may reference
// environment variables with ${NAME}.
package config
