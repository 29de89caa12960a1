// Package log provides simple leveled logging for fw-ipsets.
//
// Levels are DEBUG (only in verbose mode), INFO, WARN and ERROR. Level tags are
// colored when stdout is a terminal; errors always go to stderr.
//
//	log.Infof("Processing ipset '%s'", name)
//	log.SetVerbose(true)
//	log.Debugf("Running %s", cmdline)
package log
