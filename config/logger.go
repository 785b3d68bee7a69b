package config

import (
	"log"
	"os"
	"strings"
)

// Logger routes the standard logger to stdout, prefixed with the app name
// outside development so mixed container logs stay attributable.
func Logger() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	if Env.AppEnv != "" && Env.AppEnv != "development" {
		log.SetPrefix(strings.ToUpper(strings.ReplaceAll(Env.AppName, " ", "_")) + " : ")
	}
}
