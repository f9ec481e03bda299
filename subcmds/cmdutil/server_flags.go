// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"flag"

	"github.com/bvk/hashbid/config"
)

// ServerFlags override the daemon listen address from the config file.
type ServerFlags struct {
	Port int
	IP   string
}

func (sf *ServerFlags) SetFlags(fset *flag.FlagSet) {
	fset.IntVar(&sf.Port, "listen-port", 0, "TCP port number for the api endpoint (overrides the config file)")
	fset.StringVar(&sf.IP, "listen-ip", "", "TCP ip address for the api endpoint (overrides the config file)")
}

// Apply copies the flags that were set into the server config.
func (sf *ServerFlags) Apply(s *config.Server) {
	if sf.Port != 0 {
		s.ListenPort = sf.Port
	}
	if len(sf.IP) != 0 {
		s.ListenIP = sf.IP
	}
}
