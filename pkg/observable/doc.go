// Package observable provides a single-value reactive cell.
//
// ObservableValue[T] records which derivations read it, lets interceptors
// veto or rewrite writes before they apply, and notifies listeners after a
// write actually changed the value.
//
// # Core Types
//
// ObservableValue[T] is the cell:
//
//	count := observable.NewObservableValue(0)
//	value := count.Get()   // Read (subscribes the tracking derivation)
//	_ = count.Set(5)       // Write (runs the change pipeline)
//
// Interceptors see a write before it applies and may rewrite or veto it:
//
//	count.Intercept(func(c observable.ValueWillChange[int]) (observable.ValueWillChange[int], bool) {
//	    if c.NewValue < 0 {
//	        return c, false // veto
//	    }
//	    return c, true
//	})
//
// Listeners see every committed change:
//
//	count.Observe(func(c observable.ValueDidChange[int]) {
//	    fmt.Println(c.OldValue, "->", c.NewValue)
//	}, false)
//
// # Context
//
// Every cell reports reads and changes to a Context. The Context tracks the
// current Derivation, batches notifications, enforces the mutation policy
// and fans diagnostic events out to spies:
//
//	ctx := observable.NewContext(observable.WithEnforceActions(observable.EnforceObserved))
//	name := observable.NewObservableValue("Ada", observable.WithContext(ctx))
//
//	r := observable.NewReaction(ctx, "greeter", func() {
//	    fmt.Println("hello", name.Get())
//	})
//	r.Run()
//
//	ctx.RunInAction("rename", func() {
//	    _ = name.Set("Grace") // reaction re-runs when the action ends
//	})
//
// Cells created without WithContext use Default().
//
// # Thread Safety
//
// The change pipeline takes no locks. A Context and the cells bound to it
// must be used from one goroutine at a time.
package observable
