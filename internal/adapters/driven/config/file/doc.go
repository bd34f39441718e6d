// Package file provides the TOML configuration store kept in the baratazo
// home directory (~/.baratazo, or $BARATAZO_HOME).
package file
