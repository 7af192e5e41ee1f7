// Package driver runs environments with docker compose and sweeps the
// containers and networks they leave behind.
//
// Compose shells out to the compose CLI in an environment directory, one
// project per directory. Sweeper talks to the Docker engine API and removes
// resources whose compose project carries the configured prefix.
package driver
