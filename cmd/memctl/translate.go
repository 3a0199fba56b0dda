package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memkit/memkit/mem"
	"github.com/memkit/memkit/mem/page"
)

var (
	transMaps     []string
	transPageSize uint64
	transCheck    string
	transLevel    string
)

func init() {
	cmd := newTranslateCmd()
	cmd.Flags().StringArrayVar(&transMaps, "map",
		nil, "Mapping as VIRT:PHYS:PERMS, e.g. 0x1000:0x5000:rw (repeatable)")
	cmd.Flags().Uint64Var(&transPageSize, "page-size", 4096, "Page size in bytes (power of two)")
	cmd.Flags().StringVar(&transCheck, "check", "", "Also check access with these permissions (r, w, x, c)")
	cmd.Flags().StringVar(&transLevel, "level", "standard", "Caller security level: restricted, standard, privileged")
	rootCmd.AddCommand(cmd)
}

func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <virtual-address>",
		Short: "Translate a virtual address through a page table",
		Long: `The translate command builds a page table from --map entries, resolves
a virtual address to its physical address, and optionally checks
whether an access would be allowed. Mapped entries run at the
standard security level; --level sets the caller's level.

Example:
  memctl translate 0x1234 --map 0x1000:0x5000:rw
  memctl translate 0x1234 --map 0x1000:0x5000:rw --check w --level restricted`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(args)
		},
	}
	return cmd
}

func runTranslate(args []string) error {
	virt, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	if transPageSize == 0 || transPageSize&(transPageSize-1) != 0 {
		return fmt.Errorf("page size must be a power of two, got %d", transPageSize)
	}
	if len(transMaps) == 0 {
		return fmt.Errorf("at least one --map VIRT:PHYS:PERMS mapping is required")
	}

	pt := page.NewWithPageSize(transPageSize)
	for _, m := range transMaps {
		parts := strings.Split(m, ":")
		if len(parts) != 3 {
			return fmt.Errorf("bad mapping %q, want VIRT:PHYS:PERMS", m)
		}
		v, err := parseAddr(parts[0])
		if err != nil {
			return err
		}
		p, err := parseAddr(parts[1])
		if err != nil {
			return err
		}
		perms, err := parsePerms(parts[2])
		if err != nil {
			return err
		}
		if err := pt.Map(v, p, page.FromPermissions(perms, true), mem.LevelStandard); err != nil {
			return fmt.Errorf("failed to map %q: %w", m, err)
		}
		printVerbose("mapped 0x%x -> 0x%x (%s)\n", v, p, perms)
	}

	physAddr, err := pt.Translate(virt)
	if err != nil {
		return err
	}
	entry, _ := pt.Lookup(virt)

	result := map[string]interface{}{
		"virtual":  virt,
		"physical": physAddr,
		"page":     entry.VirtualAddress,
		"frame":    entry.PhysicalAddress,
		"flags":    entry.Flags.String(),
	}

	var caller mem.Level
	var accessErr error
	if transCheck != "" {
		required, err := parsePerms(transCheck)
		if err != nil {
			return err
		}
		caller, err = parseLevel(transLevel)
		if err != nil {
			return err
		}
		accessErr = pt.CheckAccess(virt, required, caller)
		access := map[string]interface{}{
			"required": required.String(),
			"level":    caller.String(),
			"allowed":  accessErr == nil,
		}
		if accessErr != nil {
			access["reason"] = accessErr.Error()
		}
		result["access"] = access
	}

	if jsonOut {
		return printJSON(result)
	}

	printInfo("virtual 0x%x -> physical 0x%x\n", virt, physAddr)
	printInfo("  page 0x%x -> frame 0x%x\n", entry.VirtualAddress, entry.PhysicalAddress)
	printInfo("  flags: %s\n", entry.Flags)
	if transCheck != "" {
		if accessErr == nil {
			printInfo("  access %q as %s: allowed\n", transCheck, caller)
		} else {
			printInfo("  access %q as %s: denied (%v)\n", transCheck, caller, accessErr)
		}
	}
	return nil
}

// parsePerms builds a permission set from a string of r, w, x, c letters.
func parsePerms(s string) (mem.Permissions, error) {
	var p mem.Permissions
	for _, r := range s {
		switch r {
		case 'r':
			p.Read = true
		case 'w':
			p.Write = true
		case 'x':
			p.Execute = true
		case 'c':
			p.ComputeCapable = true
		case '-':
			// padding as printed by Permissions.String
		default:
			return mem.Permissions{}, fmt.Errorf("bad permission %q in %q (want r, w, x, c)", r, s)
		}
	}
	return p, nil
}

func parseLevel(s string) (mem.Level, error) {
	switch strings.ToLower(s) {
	case "restricted":
		return mem.LevelRestricted, nil
	case "standard":
		return mem.LevelStandard, nil
	case "privileged":
		return mem.LevelPrivileged, nil
	}
	return 0, fmt.Errorf("bad security level %q (want restricted, standard, or privileged)", s)
}
