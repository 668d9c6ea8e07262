// ragdolltool is a CLI utility for inspecting ragdoll configurations and
// saved snapshots.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Faultbox/midgard-ragdoll/internal/config"
	"github.com/Faultbox/midgard-ragdoll/internal/demo"
	"github.com/Faultbox/midgard-ragdoll/internal/physics/planar"
	"github.com/Faultbox/midgard-ragdoll/internal/ragdoll"
	"github.com/Faultbox/midgard-ragdoll/internal/skeleton"
	"github.com/Faultbox/midgard-ragdoll/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "describe", "tree":
		cmdDescribe(args)
	case "inspect":
		cmdInspect(args)
	case "actions":
		for _, name := range demo.Actions() {
			fmt.Println(name)
		}
	case "easings":
		for _, name := range ragdoll.EasingNames() {
			fmt.Println(name)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ragdolltool - ragdoll configuration and snapshot utility

Usage:
  ragdolltool <command> [options]

Commands:
  describe [-config file]             Print the link tree the config builds
  inspect <snapshot>                  Print a snapshot written by the demo
  inspect -key <key> [-app name]      Print a snapshot from the data store
  actions                             List demo script actions
  easings                             List blend easing curves

Examples:
  ragdolltool describe -config ragdoll.yaml
  ragdolltool inspect ./snapshot.msgpack
  ragdolltool inspect -key ragdoll.snapshot`)
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func cmdDescribe(args []string) {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	path := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg, err := config.LoadFile(*path)
	if err != nil {
		fail("Error: %v", err)
	}

	dac, err := ragdoll.New(cfg.Ragdoll)
	if err != nil {
		fail("Error: %v", err)
	}
	space := planar.New(planar.Config{Gravity: cfg.Physics.Gravity})
	model := skeleton.NewHumanoid("humanoid")
	props := make(map[string]*skeleton.Model, len(cfg.Ragdoll.Attachments))
	for _, a := range cfg.Ragdoll.Attachments {
		props[a.Bone] = skeleton.NewProp(a.Bone + ".prop")
	}
	if err := dac.Attach(space, model, props); err != nil {
		fail("Error: %v", err)
	}
	defer dac.Detach()
	// The first update creates the joints.
	if err := dac.Update(0); err != nil {
		fail("Error: %v", err)
	}

	fmt.Printf("Links:  %d\n", len(dac.Links()))
	fmt.Printf("Bodies: %d\n", space.BodyCount())
	fmt.Printf("Joints: %d\n", space.JointCount())
	fmt.Printf("Easing: %s\n", cfg.Ragdoll.Easing)
	fmt.Println()
	if err := dac.Describe(os.Stdout); err != nil {
		fail("Error: %v", err)
	}
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	key := fs.String("key", "", "Read from the data store under this key")
	app := fs.String("app", config.Default().Storage.AppName, "Data store application name")
	fs.Parse(args)

	var (
		state ragdoll.State
		err   error
		from  string
	)
	switch {
	case *key != "":
		var st *store.Store
		st, err = store.Open(*app)
		if err == nil {
			state, err = st.Load(*key)
		}
		from = *app + ":" + *key
	case fs.NArg() > 0:
		from = fs.Arg(0)
		state, err = store.ReadFile(from)
	default:
		fail("Usage: ragdolltool inspect <snapshot> | -key <key>")
	}
	if err != nil {
		fail("Error: %v", err)
	}

	fmt.Printf("Snapshot: %s\n", from)
	fmt.Printf("Model:    %s\n", state.Model)
	fmt.Printf("Root:     %v\n", state.Root.Translation)
	fmt.Printf("Ready:    %v\n", state.Ready)
	fmt.Printf("Links:    %d\n", len(state.Links))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tWEIGHT\tINTERVAL\tBODY\tJOINT\tFLAGS")
	for _, l := range state.Links {
		flags := ""
		switch {
		case l.Released:
			flags = "released"
		case l.Amputated:
			flags = "amputated"
		}
		if l.KinematicWeight == 0 {
			flags += fmt.Sprintf(" gravity=%v", l.Gravity)
		}
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.2f\t%d\t%d\t%s\n",
			l.Name, l.Kind, l.KinematicWeight, l.BlendInterval, l.Body, l.Joint, flags)
	}
	w.Flush()
}
