package main

import (
	"runtime/debug"
	"time"
)

// set with -ldflags "-X main.commit=... -X main.buildDate=..."
var (
	commit    = "dev"
	buildDate = ""
)

// resolveBuild fills commit and buildDate from VCS stamps when not set at link time
func resolveBuild() (string, string) {
	c, d := commit, buildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if c == "dev" && s.Value != "" {
					c = s.Value
					if len(c) > 7 {
						c = c[:7]
					}
				}
			case "vcs.time":
				if d == "" && s.Value != "" {
					if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
						d = t.Format("2006-01-02")
					}
				}
			}
		}
	}
	if d == "" {
		d = "unknown"
	}
	return c, d
}
