package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/ownership/host"
	"github.com/wippyai/ownership/internal/lifecycle"
	"github.com/wippyai/ownership/pair"
	"github.com/wippyai/ownership/ptr"
	"github.com/wippyai/ownership/resource"
)

// step is one pause point of a scenario. Its output is whatever it records.
type step struct {
	run   func() error
	title string
}

type scenario struct {
	build func(ctx context.Context, rec *lifecycle.Recorder) []step
	name  string
	title string
}

var scenarios = []scenario{
	{name: "raw", title: "Raw pointers", build: rawScenario},
	{name: "unique", title: "Exclusive ownership", build: uniqueScenario},
	{name: "shared", title: "Shared ownership", build: sharedScenario},
	{name: "cycle", title: "Self reference", build: cycleScenario},
	{name: "weak", title: "Weak observation", build: weakScenario},
	{name: "table", title: "Handle table and host module", build: tableScenario},
}

func scenarioNames() []string {
	names := make([]string, len(scenarios))
	for i, sc := range scenarios {
		names[i] = sc.name
	}
	return names
}

// selectScenarios returns the scenarios matching name, or all of them.
func selectScenarios(name string) ([]scenario, error) {
	if name == "" || name == "all" {
		return scenarios, nil
	}
	for _, sc := range scenarios {
		if sc.name == name {
			return []scenario{sc}, nil
		}
	}
	return nil, fmt.Errorf("unknown scenario %q (want %s or all)", name, strings.Join(scenarioNames(), ", "))
}

// runPlain runs every step back to back and prints the trace.
func runPlain(ctx context.Context, w io.Writer, list []scenario, log *zap.Logger) error {
	for _, sc := range list {
		rec := lifecycle.NewRecorder(log)
		fmt.Fprintf(w, "== %s ==\n", sc.title)

		seen := 0
		for _, st := range sc.build(ctx, rec) {
			fmt.Fprintf(w, "-- %s\n", st.title)
			if err := st.run(); err != nil {
				return fmt.Errorf("%s: %s: %w", sc.name, st.title, err)
			}
			lines := rec.Lines()
			for _, line := range lines[seen:] {
				fmt.Fprintln(w, line)
			}
			seen = len(lines)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func rawScenario(_ context.Context, rec *lifecycle.Recorder) []step {
	return []step{
		{
			title: "Destroying a chain of raw pointers",
			run: func() error {
				tim := lifecycle.NewRawPerson(rec, "tim")
				tim.Parent = lifecycle.NewRawPerson(rec, "timothy")
				tim.Drop()
				return nil
			},
		},
		{
			title: "Destroying a parent reachable from two places",
			run: func() error {
				jim := lifecycle.NewRawPerson(rec, "jim")
				jim.Parent = lifecycle.NewRawPerson(rec, "jimothy")
				jim.Parent.Drop()
				// Dropping jim now would destroy jimothy a second time.
				jim.Parent = nil
				jim.Drop()
				return nil
			},
		},
	}
}

func uniqueScenario(_ context.Context, rec *lifecycle.Recorder) []step {
	var who, what *ptr.Unique[lifecycle.UniquePerson]

	names := func() string {
		return pair.New(who.MustDeref().Name, what.MustDeref().Name).String()
	}

	return []step{
		{
			title: "Creating a chain of exclusive owners",
			run: func() error {
				joe := ptr.NewUnique(lifecycle.NewUniquePerson(rec, "Joe the third"))
				joe.MustDeref().Parent.Reset(lifecycle.NewUniquePerson(rec, "Joe the second"))
				joe.MustDeref().Parent.MustDeref().Parent.Reset(lifecycle.NewUniquePerson(rec, "Joe the first"))

				p := joe.Release()
				p.Drop()
				joe.Reset(nil)
				return nil
			},
		},
		{
			title: "Swapping owners",
			run: func() error {
				who = ptr.NewUnique(lifecycle.NewUniquePerson(rec, "who"))
				what = ptr.NewUnique(lifecycle.NewUniquePerson(rec, "what"))
				rec.Record("who, what: " + names())
				who.Swap(what)
				rec.Record("who, what: " + names())
				return nil
			},
		},
		{
			title: "Reassigning owners",
			run: func() error {
				who.Take(ptr.NewUnique(lifecycle.NewUniquePerson(rec, "who")))
				what.Release().Drop()
				what.Take(ptr.NewUnique(lifecycle.NewUniquePerson(rec, "what")))
				rec.Record("who, what: " + names())
				return nil
			},
		},
		{
			title: "Leaving scope",
			run: func() error {
				who.Reset(nil)
				what.Reset(nil)
				return nil
			},
		},
	}
}

func sharedScenario(_ context.Context, rec *lifecycle.Recorder) []step {
	var blossom, bubbles, buttercup *lifecycle.SharedPerson

	return []step{
		{
			title: "Sharing one parent",
			run: func() error {
				blossom = lifecycle.NewSharedPerson(rec, "Blossom")
				bubbles = lifecycle.NewSharedPerson(rec, "Bubbles")
				buttercup = lifecycle.NewSharedPerson(rec, "Buttercup")

				blossom.Parent.Take(ptr.NewShared(lifecycle.NewSharedPerson(rec, "Professor")))
				bubbles.Parent.Assign(blossom.Parent)
				buttercup.Parent.Assign(bubbles.Parent)
				rec.Record(fmt.Sprintf("blossom.Parent.UseCount(): %d", blossom.Parent.UseCount()))
				return nil
			},
		},
		{
			title: "Destroying the owners one by one",
			run: func() error {
				blossom.Drop()
				rec.Record(fmt.Sprintf("bubbles.Parent.UseCount(): %d", bubbles.Parent.UseCount()))
				bubbles.Drop()
				rec.Record(fmt.Sprintf("buttercup.Parent.UseCount(): %d", buttercup.Parent.UseCount()))
				buttercup.Drop()
				return nil
			},
		},
	}
}

func cycleScenario(_ context.Context, rec *lifecycle.Recorder) []step {
	var fred *lifecycle.SharedPerson

	return []step{
		{
			title: "Owning yourself",
			run: func() error {
				fred = lifecycle.NewSharedPerson(rec, "fred")
				fred.Parent.Take(ptr.NewShared(fred))
				rec.Record(fmt.Sprintf("fred.Parent.UseCount(): %d", fred.Parent.UseCount()))
				return nil
			},
		},
		{
			title: "Breaking the cycle by hand",
			run: func() error {
				fred.Parent.Reset()
				return nil
			},
		},
	}
}

func weakScenario(_ context.Context, rec *lifecycle.Recorder) []step {
	var fredzilla *ptr.Shared[lifecycle.SharedPerson]
	var weak *ptr.Weak[lifecycle.SharedPerson]

	return []step{
		{
			title: "Observing a live referent",
			run: func() error {
				fredzilla = ptr.NewShared(lifecycle.NewSharedPerson(rec, "Fredzilla"))
				weak = fredzilla.Downgrade()
				rec.Record(fmt.Sprintf("weak.UseCount(): %d", weak.UseCount()))

				temp := weak.Lock()
				defer temp.Reset()
				if !temp.Empty() {
					rec.Record("temp.Name: " + temp.MustDeref().Name)
				}
				rec.Record(fmt.Sprintf("weak.UseCount(): %d", weak.UseCount()))
				return nil
			},
		},
		{
			title: "Observing after the owner is gone",
			run: func() error {
				fredzilla.Reset()
				rec.Record(fmt.Sprintf("weak.UseCount(): %d", weak.UseCount()))
				if weak.Lock().Empty() {
					rec.Record("weak.Lock() is empty")
				}
				weak.Reset()
				return nil
			},
		},
	}
}

func tableScenario(ctx context.Context, rec *lifecycle.Recorder) []step {
	var (
		rt     wazero.Runtime
		mod    *host.Module
		guest  api.Module
		handle resource.Handle
		clone  uint64
		weak   uint64
	)

	call := func(name string, arg uint64) (uint64, error) {
		results, err := guest.ExportedFunction(name).Call(ctx, arg)
		if err != nil {
			return 0, err
		}
		if len(results) == 0 {
			return 0, nil
		}
		return results[0], nil
	}

	return []step{
		{
			title: "Exporting a shared referent to the guest",
			run: func() (err error) {
				rt = wazero.NewRuntime(ctx)
				mod = host.NewModule(resource.NewTable(), 1)
				if _, err = mod.Instantiate(ctx, rt); err != nil {
					return err
				}
				if guest, err = mod.InstantiateGuest(ctx, rt); err != nil {
					return err
				}
				if handle, err = mod.Share(lifecycle.NewSharedPerson(rec, "Mojo")); err != nil {
					return err
				}
				if clone, err = call(host.FuncClone, uint64(handle)); err != nil {
					return err
				}
				if weak, err = call(host.FuncDowngrade, clone); err != nil {
					return err
				}
				n, err := call(host.FuncUseCount, clone)
				if err != nil {
					return err
				}
				rec.Record(fmt.Sprintf("handles %d, %d share Mojo, use-count: %d", handle, clone, n))
				return nil
			},
		},
		{
			title: "Dropping the guest's handles",
			run: func() error {
				if _, err := call(host.FuncDrop, uint64(handle)); err != nil {
					return err
				}
				if _, err := call(host.FuncDrop, clone); err != nil {
					return err
				}
				expired, err := call(host.FuncExpired, weak)
				if err != nil {
					return err
				}
				rec.Record(fmt.Sprintf("weak handle %d expired: %t", weak, expired == 1))

				if err := mod.Table().Close(); err != nil {
					return err
				}
				return rt.Close(ctx)
			},
		},
	}
}
