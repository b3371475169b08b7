// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package sshsetup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
)

// DefaultControlPersist is the master connection lifetime in seconds
// when the manifest does not configure one.
const DefaultControlPersist = 600

func sshDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ssh"), nil
}

// SocketExists reports whether a live ControlMaster socket exists for
// host under ~/.ssh/sockets.
func SocketExists(host string) bool {
	dir, err := sshDir()
	if err != nil {
		return false
	}
	_, statErr := os.Stat(filepath.Join(dir, "sockets", fmt.Sprintf("git@%s-22", host)))
	return statErr == nil
}

// IsMultiplexingConfigured reports whether ~/.ssh/config enables
// ControlMaster for every given host (directly, via wildcard pattern,
// or via a global block).
func IsMultiplexingConfigured(hosts []string) bool {
	dir, err := sshDir()
	if err != nil {
		return false
	}
	data, err := os.ReadFile(filepath.Join(dir, "config"))
	if err != nil {
		return false
	}
	for _, host := range hosts {
		if !hostHasControlMaster(string(data), host) {
			return false
		}
	}
	return len(hosts) > 0
}

// hostHasControlMaster scans an ssh_config for a ControlMaster
// directive in a Host block matching host. This is a simplified
// parser: wildcards match by substring.
func hostHasControlMaster(config, host string) bool {
	inMatchingBlock := false
	for _, line := range strings.Split(config, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "host ") {
			inMatchingBlock = false
			for _, pattern := range strings.Fields(line[5:]) {
				switch {
				case pattern == "*":
					inMatchingBlock = true
				case strings.Contains(pattern, "*"):
					if strings.Contains(host, strings.ReplaceAll(pattern, "*", "")) {
						inMatchingBlock = true
					}
				case pattern == host:
					inMatchingBlock = true
				}
			}
			continue
		}

		if !inMatchingBlock {
			continue
		}
		if strings.HasPrefix(lower, "controlmaster") {
			value := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(lower, "controlmaster"), "="))
			if value == "auto" || value == "yes" || value == "autoask" {
				return true
			}
		}
	}
	return false
}

// ConfigBlock renders the ssh_config stanza that enables multiplexing
// for the given hosts.
func ConfigBlock(hosts []string, controlPersistSeconds int) string {
	if controlPersistSeconds <= 0 {
		controlPersistSeconds = DefaultControlPersist
	}
	var b strings.Builder
	b.WriteString("# Added by gz-meta setup-ssh: connection multiplexing for parallel git\n")
	b.WriteString(fmt.Sprintf("Host %s\n", strings.Join(hosts, " ")))
	b.WriteString("  ControlMaster auto\n")
	b.WriteString("  ControlPath ~/.ssh/sockets/%r@%h-%p\n")
	b.WriteString(fmt.Sprintf("  ControlPersist %d\n", controlPersistSeconds))
	return b.String()
}

// InstallConfigBlock appends the multiplexing stanza to ~/.ssh/config
// and ensures the sockets directory exists.
func InstallConfigBlock(hosts []string, controlPersistSeconds int) error {
	dir, err := sshDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(dir, "sockets"), 0o700); err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config")
	f, err := os.OpenFile(configPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "\n%s", ConfigBlock(hosts, controlPersistSeconds))
	return err
}

// PreCommands emits the ssh master-connection commands that should run
// before a parallel git fan-out, one per host that has multiplexing
// configured but no live socket. Opening the master up front avoids
// the race where N parallel connections all try to become it.
func PreCommands(hosts []string) []plan.Command {
	var commands []plan.Command
	for _, host := range hosts {
		if SocketExists(host) || !IsMultiplexingConfigured([]string{host}) {
			continue
		}
		commands = append(commands, plan.Command{
			Dir: ".",
			Cmd: fmt.Sprintf("ssh -fNM -o ControlMaster=auto -o ControlPath=~/.ssh/sockets/%%r@%%h-%%p -o ControlPersist=%d -o ConnectTimeout=10 git@%s",
				DefaultControlPersist, host),
		})
	}
	return commands
}
