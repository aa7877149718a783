package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebogdum/jfsio/engine"
	"github.com/ebogdum/jfsio/fileio"
	"github.com/ebogdum/jfsio/wire"
)

var (
	longListing bool
	makeParents bool
	recursive   bool
	bottomUp    bool
	appendPut   bool
	createOnly  bool
	putPerm     string
	xattrCreate bool
)

func addFileCommands(root *cobra.Command) {
	lsCmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withVolume(runLs),
	}
	lsCmd.Flags().BoolVarP(&longListing, "long", "l", false, "Show mode, owner, size and mtime")

	mkdirCmd := &cobra.Command{
		Use:   "mkdir path...",
		Short: "Create directories",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withVolume(runMkdir),
	}
	mkdirCmd.Flags().BoolVarP(&makeParents, "parents", "p", false, "Create missing parents, no error if existing")

	rmCmd := &cobra.Command{
		Use:   "rm path...",
		Short: "Remove files, symlinks or empty directories",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withVolume(runRm),
	}
	rmCmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Remove directories and their contents")

	putCmd := &cobra.Command{
		Use:   "put local remote",
		Short: "Copy a local file (or - for stdin) into the volume",
		Args:  cobra.ExactArgs(2),
		RunE:  withVolume(runPut),
	}
	putCmd.Flags().BoolVarP(&appendPut, "append", "a", false, "Append instead of truncating")
	putCmd.Flags().BoolVarP(&createOnly, "exclusive", "x", false, "Fail if the remote file exists")
	putCmd.Flags().StringVar(&putPerm, "mode", "644", "Octal permission bits for new files")

	walkCmd := &cobra.Command{
		Use:   "walk [path]",
		Short: "Walk a directory tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  withVolume(runWalk),
	}
	walkCmd.Flags().BoolVar(&bottomUp, "bottom-up", false, "Visit directories after their contents")

	xattrCmd := &cobra.Command{
		Use:   "xattr",
		Short: "Extended attribute commands",
	}
	xattrSetCmd := &cobra.Command{Use: "set path name value", Short: "Set an attribute", Args: cobra.ExactArgs(3), RunE: withVolume(runXattrSet)}
	xattrSetCmd.Flags().BoolVar(&xattrCreate, "create", false, "Fail if the attribute exists")
	xattrCmd.AddCommand(
		xattrSetCmd,
		&cobra.Command{Use: "get path name", Short: "Print an attribute value", Args: cobra.ExactArgs(2), RunE: withVolume(runXattrGet)},
		&cobra.Command{Use: "list path", Short: "List attribute names", Args: cobra.ExactArgs(1), RunE: withVolume(runXattrList)},
		&cobra.Command{Use: "rm path name", Short: "Remove an attribute", Args: cobra.ExactArgs(2), RunE: withVolume(runXattrRemove)},
	)

	root.AddCommand(
		lsCmd, mkdirCmd, rmCmd, putCmd, walkCmd, xattrCmd,
		&cobra.Command{Use: "stat path", Short: "Show file status", Args: cobra.ExactArgs(1), RunE: withVolume(runStat)},
		&cobra.Command{Use: "cat path...", Short: "Print file contents", Args: cobra.MinimumNArgs(1), RunE: withVolume(runCat)},
		&cobra.Command{Use: "mv old new", Short: "Rename a file or directory", Args: cobra.ExactArgs(2), RunE: withVolume(runMv)},
		&cobra.Command{Use: "ln target link", Short: "Create a symbolic link", Args: cobra.ExactArgs(2), RunE: withVolume(runLn)},
		&cobra.Command{Use: "truncate path size", Short: "Set a file's length", Args: cobra.ExactArgs(2), RunE: withVolume(runTruncate)},
		&cobra.Command{Use: "chmod mode path", Short: "Change permission bits", Args: cobra.ExactArgs(2), RunE: withVolume(runChmod)},
		&cobra.Command{Use: "chown user[:group] path", Short: "Change owner and group", Args: cobra.ExactArgs(2), RunE: withVolume(runChown)},
		&cobra.Command{Use: "touch path...", Short: "Create files or update their times", Args: cobra.MinimumNArgs(1), RunE: withVolume(runTouch)},
		&cobra.Command{Use: "df", Short: "Show volume capacity", Args: cobra.NoArgs, RunE: withVolume(runDf)},
		&cobra.Command{Use: "du [path]", Short: "Summarize a directory tree", Args: cobra.MaximumNArgs(1), RunE: withVolume(runDu)},
	)
}

func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

func runLs(v *volume, args []string) error {
	dir := argOr(args, "/")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 1, ' ', 0)
	for entry, err := range v.Scandir(dir) {
		if err != nil {
			return err
		}
		if !longListing {
			fmt.Fprintln(w, entry.Name)
			continue
		}
		name := entry.Name
		if entry.IsSymlink() {
			if target, err := v.Readlink(entry.Path()); err == nil {
				name += " -> " + target
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			entry.Stat.FileMode(), entry.Stat.Owner, entry.Stat.Group, entry.Stat.Size,
			entry.Stat.ModTime().Format(time.DateTime), name)
	}
	return w.Flush()
}

func printStat(w io.Writer, p string, st wire.Stat) {
	fmt.Fprintf(w, "  File: %s\n", p)
	fmt.Fprintf(w, "  Size: %d\n", st.Size)
	fmt.Fprintf(w, "  Mode: %s (%04o)\n", st.FileMode(), st.Mode&0o7777)
	fmt.Fprintf(w, " Owner: %s\n", st.Owner)
	fmt.Fprintf(w, " Group: %s\n", st.Group)
	fmt.Fprintf(w, "Access: %s\n", st.AccessTime().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "Modify: %s\n", st.ModTime().Format(time.RFC3339Nano))
}

func runStat(v *volume, args []string) error {
	st, err := v.Lstat(args[0])
	if err != nil {
		return err
	}
	printStat(os.Stdout, args[0], st)
	if st.IsSymlink() {
		target, err := v.Readlink(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("  Link: %s\n", target)
	}
	return nil
}

func runCat(v *volume, args []string) error {
	for _, p := range args {
		f, err := fileio.Open(v.Session, p, "rb", fileio.WithLeakCheck(v.cfg.Session.LeakCheck))
		if err != nil {
			return err
		}
		_, err = io.Copy(os.Stdout, f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runPut(v *volume, args []string) error {
	perm, err := strconv.ParseUint(putPerm, 8, 32)
	if err != nil {
		return fmt.Errorf("invalid mode %q: %w", putPerm, err)
	}

	var src io.Reader = os.Stdin
	if args[0] != "-" {
		local, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer local.Close()
		src = local
	}

	mode := "wb"
	switch {
	case createOnly:
		mode = "xb"
	case appendPut:
		mode = "ab"
	}
	f, err := fileio.Open(v.Session, args[1], mode,
		fileio.WithPerm(fs.FileMode(perm)),
		fileio.WithLeakCheck(v.cfg.Session.LeakCheck))
	if err != nil {
		return err
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%d bytes written to %s\n", n, args[1])
	return nil
}

func runMkdir(v *volume, args []string) error {
	for _, p := range args {
		var err error
		if makeParents {
			err = v.MakeDirs(p, 0o755, true)
		} else {
			err = v.Mkdir(p, 0o755)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runRm(v *volume, args []string) error {
	for _, p := range args {
		var err error
		if recursive {
			err = v.Rmtree(p)
		} else {
			err = v.Delete(p)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func runMv(v *volume, args []string) error { return v.Rename(args[0], args[1]) }

func runLn(v *volume, args []string) error { return v.Symlink(args[0], args[1]) }

func runTruncate(v *volume, args []string) error {
	size, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", args[1], err)
	}
	return v.Truncate(args[0], size)
}

func runChmod(v *volume, args []string) error {
	mode, err := strconv.ParseUint(args[0], 8, 32)
	if err != nil {
		return fmt.Errorf("invalid mode %q: %w", args[0], err)
	}
	return v.Chmod(args[1], fs.FileMode(mode))
}

func runChown(v *volume, args []string) error {
	user, group, _ := strings.Cut(args[0], ":")
	return v.Chown(args[1], user, group)
}

func runTouch(v *volume, args []string) error {
	now := time.Now()
	for _, p := range args {
		if !v.Lexists(p) {
			if err := v.Create(p, 0o644); err != nil {
				return err
			}
			continue
		}
		if err := v.Utime(p, now, now); err != nil {
			return err
		}
	}
	return nil
}

func runWalk(v *volume, args []string) error {
	for step, err := range v.Walk(argOr(args, "/"), !bottomUp) {
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d dirs, %d files\n", step.Dir, len(step.Dirs), len(step.Files))
		for _, name := range step.Files {
			fmt.Printf("  %s\n", name)
		}
	}
	return nil
}

func runDf(v *volume, args []string) error {
	vfs, err := v.Statvfs()
	if err != nil {
		return err
	}
	total := vfs.Blocks * vfs.Bsize
	avail := vfs.Bavail * vfs.Bsize
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Volume\tSize\tUsed\tAvail\tUse%")
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", v.Name(), total, total-avail, avail, percent(total-avail, total))
	return w.Flush()
}

func percent(part, whole uint64) string {
	if whole == 0 {
		return "-"
	}
	return strconv.FormatUint(part*100/whole, 10) + "%"
}

func runDu(v *volume, args []string) error {
	p := argOr(args, "/")
	sum, err := v.Summary(p)
	if err != nil {
		return err
	}
	fmt.Printf("%d bytes\t%d files\t%d dirs\t%s\n", sum.Size, sum.Files, sum.Dirs, p)
	return nil
}

func runXattrGet(v *volume, args []string) error {
	value, err := v.GetXattr(args[0], args[1])
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(value, '\n'))
	return err
}

func runXattrSet(v *volume, args []string) error {
	var flags int32
	if xattrCreate {
		flags = engine.XATTR_CREATE
	}
	return v.SetXattr(args[0], args[1], []byte(args[2]), flags)
}

func runXattrList(v *volume, args []string) error {
	names, err := v.ListXattr(args[0])
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runXattrRemove(v *volume, args []string) error {
	return v.RemoveXattr(args[0], args[1])
}
