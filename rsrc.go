// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"cmp"
	"fmt"
	"io/fs"
	"slices"
	"strconv"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/elliotnunn/MacShim/internal/resourcefork"
	"github.com/spf13/cobra"
)

var rsrcMatch string

var rsrcCmd = &cobra.Command{
	Use:   "rsrc",
	Short: "Inspect resource forks",
}

var rsrcLsCmd = &cobra.Command{
	Use:   "ls FILE...",
	Short: "List the resources in each file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandArgs(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range paths {
			fork, in, err := openFork(p)
			if err != nil {
				return err
			}
			list, err := matchResources(fork, rsrcMatch)
			in.Close()
			if err != nil {
				return err
			}
			for _, r := range list {
				fmt.Fprintf(out, "%s\t%q\t%d\t%d\t%q\n", p, r.Type.String(), r.ID, r.Size, r.Name)
			}
		}
		return nil
	},
}

var rsrcCatCmd = &cobra.Command{
	Use:   "cat FILE TYPE ID",
	Short: "Write one resource to standard output",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resourcefork.ParseType(args[1])
		if err != nil {
			return err
		}
		id, err := parseID(args[2])
		if err != nil {
			return err
		}
		fork, in, err := openFork(args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		r, ok := fork.Lookup(t, id)
		if !ok {
			return fmt.Errorf("%s: no %q resource %d: %w", args[0], t.String(), id, fs.ErrNotExist)
		}
		data, err := fork.ReadData(r)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// matchResources selects resources whose "TYPE/ID" path matches a doublestar pattern
func matchResources(fork *resourcefork.Fork, pattern string) ([]resourcefork.Resource, error) {
	fsys := fork.FS()
	names, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%q: %w", pattern, err)
	}
	var list []resourcefork.Resource
	for _, n := range names {
		info, err := fs.Stat(fsys, n)
		if err != nil {
			return nil, err
		}
		if r, ok := info.Sys().(resourcefork.Resource); ok {
			list = append(list, r)
		}
	}
	slices.SortFunc(list, func(a, b resourcefork.Resource) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.ID, b.ID))
	})
	return list, nil
}

func parseID(s string) (int16, error) {
	n, err := strconv.ParseInt(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("resource ID %q: %w", s, err)
	}
	return int16(n), nil
}

func init() {
	rsrcLsCmd.Flags().StringVar(&rsrcMatch, "match", "*/*", `doublestar pattern on "TYPE/ID", like 'snd /1*'`)
	rsrcCmd.AddCommand(rsrcLsCmd, rsrcCatCmd)
	rootCmd.AddCommand(rsrcCmd)
}
